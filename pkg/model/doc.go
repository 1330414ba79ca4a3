// Package model defines the types shared by every stage of the contract
// engine: templates and their field descriptors, contracts with their parties
// and tagged field values, and the error kinds surfaced to callers.
//
// Field values are a tagged union (Value) over the declared field kinds so
// that validation and formatting switch on the tag instead of inspecting
// dynamic types. Coerce converts loosely typed input (decoded JSON or YAML,
// CLI strings) into the kind a descriptor declares.
package model
