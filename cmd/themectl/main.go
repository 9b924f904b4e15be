// themectl is a terminal companion for the StudyHall appearance engine.
// It persists a preference on disk the same way the web UI persists one in
// a cookie, resolves it against the host color scheme, and can print the
// generated palette CSS for inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"

	"github.com/studyhallhq/studyhall/pkg/theme"
	"github.com/studyhallhq/studyhall/pkg/theme/diskstore"
)

// colorSchemeEnv overrides system color-scheme detection, mirroring the
// Sec-CH-Prefers-Color-Scheme hint the web surface reads.
const colorSchemeEnv = "THEMECTL_COLOR_SCHEME"

func main() {
	fs := flag.NewFlagSet("themectl", flag.ExitOnError)
	stateDir := fs.String("state-dir", "", "directory for the saved preference (default: user config dir)")
	fs.Usage = usage
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	engine := newEngine(*stateDir)

	var err error
	switch fs.Arg(0) {
	case "get":
		err = runGet(engine)
	case "set":
		err = runSet(engine, fs.Args()[1:])
	case "clear":
		err = runClear(engine)
	case "resolve":
		err = runResolve(engine)
	case "css":
		err = runCSS(engine, fs.Args()[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", fs.Arg(0))
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "themectl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: themectl [--state-dir dir] <command>

Commands:
  get              show the saved preference and what it resolves to
  set <pref>       save a preference: light, dark, or system
  clear            remove the saved preference
  resolve          print the resolved theme for the current environment
  css [--theme t]  print the palette CSS for the resolved (or given) theme

Set `+colorSchemeEnv+`=dark or =light to simulate the OS color scheme.
`)
}

func newEngine(stateDir string) *theme.Engine {
	if stateDir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			stateDir = filepath.Join(base, "studyhall", "themectl")
		} else {
			stateDir = ".themectl"
		}
	}
	return theme.New(diskstore.New(stateDir), envSource{}, nil)
}

// envSource reads the simulated OS color scheme from the environment.
type envSource struct{}

func (envSource) PrefersDark() (dark, ok bool) {
	switch os.Getenv(colorSchemeEnv) {
	case "dark":
		return true, true
	case "light":
		return false, true
	}
	return false, false
}

func (envSource) Watch(func(theme.Theme)) (cancel func()) {
	return func() {}
}

func runGet(engine *theme.Engine) error {
	pref, saved := engine.Saved()
	if !saved {
		pref = theme.PreferenceSystem
	}
	resolved := engine.Resolve(pref)

	fmt.Printf("preference: %s", pref)
	if !saved {
		fmt.Print(" (nothing saved)")
	}
	fmt.Println()
	fmt.Printf("system:     %s\n", engine.SystemTheme())
	fmt.Printf("resolved:   %s\n", themeLabel(resolved))
	return nil
}

func runSet(engine *theme.Engine, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: themectl set <light|dark|system>")
	}
	pref, ok := theme.ParsePreference(args[0])
	if !ok {
		return fmt.Errorf("invalid preference %q (want light, dark, or system)", args[0])
	}
	engine.Save(pref)
	fmt.Printf("saved preference: %s (resolves to %s)\n", pref, themeLabel(engine.Resolve(pref)))
	return nil
}

func runClear(engine *theme.Engine) error {
	engine.Clear()
	fmt.Printf("preference cleared (resolves to %s)\n", themeLabel(engine.Resolve(theme.PreferenceSystem)))
	return nil
}

func runResolve(engine *theme.Engine) error {
	fmt.Println(engine.Initialize())
	return nil
}

func runCSS(engine *theme.Engine, args []string) error {
	fs := flag.NewFlagSet("css", flag.ExitOnError)
	themeFlag := fs.String("theme", "", "render for an explicit theme instead of the resolved one")
	swatches := fs.Bool("swatches", false, "list palette roles alongside the CSS")
	_ = fs.Parse(args)

	var t theme.Theme
	switch *themeFlag {
	case "":
		t = engine.Initialize()
	case "light":
		t = theme.Light
	case "dark":
		t = theme.Dark
	default:
		return fmt.Errorf("invalid theme %q (want light or dark)", *themeFlag)
	}

	p := theme.PaletteFor(t)
	fmt.Print(theme.RenderCSS(t, p))

	if *swatches {
		fmt.Println()
		printSwatches(t, p)
	}
	return nil
}

func printSwatches(t theme.Theme, p theme.Palette) {
	bold := color.New(color.Bold)
	bold.Printf("%s palette\n", t)

	roles := make([]string, 0, len(p))
	for role := range p {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Printf("  %-24s %s\n", role, color.CyanString(p[theme.Role(role)]))
	}
}

func themeLabel(t theme.Theme) string {
	if t == theme.Dark {
		return color.HiBlueString(string(t))
	}
	return color.HiYellowString(string(t))
}
