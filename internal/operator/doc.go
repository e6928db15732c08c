// Package operator defines the typed producer model of the engine.
//
// An Operator wraps a producer function (or a fixed list of prebuilt values)
// together with its declared contract: the type it produces, the ordered list
// of parameters it requires, and metadata controlling how the engine treats
// its results (reusability, single- vs multi-valued production, method-style
// receiver resolution).
//
// Operators never surface faults to their callers. Invoke captures returned
// errors and recovered panics as the failure arm of an Emission, so the
// execution engine can record them as first-class data.
package operator
