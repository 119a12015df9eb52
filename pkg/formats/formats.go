// Package formats provides parsers for the text definition files found in
// OpenClonk groups: texture maps, materials, scenario parameter definitions
// and player controls.
package formats

// Note: TexMap.txt is implemented in texmap.go
// Note: *.ocm materials are implemented in material.go
// Note: ParameterDefs.txt is implemented in scenpar.go
// Note: PlayerControls.txt identifiers are implemented in playercontrols.go
