package fixqdf

import "regexp"

// The handful of line shapes fix-qdf must recognize. Go's regexp package is
// standard library, not a third-party dependency, so — unlike the C++
// original, which weighed pulling in <regex> against hand-rolled anchored
// matches — there is no dependency-weight argument against using it for
// all of them; see speedata-fixxref's scanner.go for the same choice in a
// different QDF-adjacent tool.
var (
	reObjHeader  = regexp.MustCompile(`^(\d+) 0 obj\n$`)
	reExtends    = regexp.MustCompile(`/Extends (\d+ 0 R)`)
	reOstreamObj = regexp.MustCompile(`^%% Object stream: object (\d+)`)
	reInteger    = regexp.MustCompile(`^\d+\n$`)
	reSizeLine   = regexp.MustCompile(`^\s*/Size \d+\n$`)
)
