package roster

import (
	"testing"

	"github.com/studyhallhq/studyhall/pkg/module"
	"github.com/studyhallhq/studyhall/pkg/module/moduletest"
)

func TestContract(t *testing.T) {
	moduletest.TestModuleContract(t, func() module.Module { return New() })
}
