package vm

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// runID identifies this process in GC log lines, so collections from
// separate runs aren't ambiguous when their logs are interleaved. It is
// chosen once per process; every VM in the same process shares it.
var runID = uuid.New().String()[:8]

// logGCStats writes one line per collection when Config.LogGC is set:
// the collection number, the total objects freed so far, the live
// object count and the next threshold, as humanize-formatted object
// counts rather than byte counts.
func (vm *VM) logGCStats() {
	s := vm.heap.stats
	fmt.Fprintf(vm.Stderr, "[gc %s] collection #%s: %s freed, %s live, next at %s\n",
		runID,
		humanize.Comma(int64(s.Collections)),
		humanize.Comma(int64(s.Freed)),
		humanize.Comma(int64(s.LiveAfter)),
		humanize.Comma(int64(vm.heap.nextGC)),
	)
}
