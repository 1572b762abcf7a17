// Package gen synthesizes fluent builder code from resolved type graphs.
//
// Generation is a pure function of the resolved closure and the options:
// every object, union and intersection entry becomes a builder type, and
// supporting enums and aliases are emitted alongside so the output file is
// self-contained. The Writer and Runner collaborators handle formatting,
// disk layout and parallel batch execution.
package gen
