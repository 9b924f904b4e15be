package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/studyhallhq/studyhall/internal/backup"
	"github.com/studyhallhq/studyhall/internal/server"
)

// runBackup archives the database and config file into a tar.gz.
func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	output := fs.String("output", "", "archive path (default studyhall-backup-<date>.tar.gz)")
	_ = fs.Parse(args)

	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	dbPath := viperCfg.GetString("database.dsn")
	if dbPath == "" {
		dbPath = "studyhall.db"
	}
	archivePath := *output
	if archivePath == "" {
		archivePath = fmt.Sprintf("studyhall-backup-%s.tar.gz", time.Now().Format("2006-01-02"))
	}

	if err := backup.Backup(context.Background(), dbPath, viperCfg.ConfigFileUsed(), archivePath); err != nil {
		fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Backup written to %s\n", archivePath)
}

// runRestore extracts a backup archive into a target directory.
func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	target := fs.String("target", ".", "directory to restore into")
	force := fs.Bool("force", false, "overwrite existing files")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: studyhall restore [--target dir] [--force] <archive.tar.gz>")
		os.Exit(2)
	}

	if err := backup.Restore(context.Background(), fs.Arg(0), *target, *force); err != nil {
		fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Restored into %s\n", *target)
}
