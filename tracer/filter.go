package tracer

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/vm"
)

// Filter decides whether operands belong to the traced module.
type Filter struct {
	Module string
}

// ShouldTrace is true if any value is declared in a namespace starting with
// the module prefix. Values without a namespace are skipped.
func (f Filter) ShouldTrace(values ...vm.Value) bool {
	for _, v := range values {
		if v == Null {
			continue
		}
		ns, err := vm.Namespace(v)
		if err != nil {
			log.Warn().Err(err).Msg("cannot resolve namespace")
			continue
		}
		if strings.HasPrefix(ns, f.Module) {
			return true
		}
	}
	return false
}
