/*
Package expr provides the boolean expression language used for selection
cuts declared in job configuration.

# Overview

Expressions are compiled once into a Program and evaluated per event against
a Vars lookup. Compilation fails on syntax errors, so a malformed cut is a
configuration error rather than a per-event failure.

	prog, err := expr.Compile("n_muons >= 2 and met > 30")
	if err != nil {
	    return err
	}
	pass, err := prog.Eval(expr.MapVars{"n_muons": 2, "met": 41.5})

# Expression Syntax

	<or>      := <and> { ('or' | '||') <and> }
	<and>     := <unary> { ('and' | '&&') <unary> }
	<unary>   := ('not' | '!') <unary> | <primary>
	<primary> := '(' <or> ')' | <operand> [ <op> <operand> ]
	<op>      := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains' | <custom>
	<operand> := 'string' | "string" | number | true | false | null | identifier

'or' binds loosest, then 'and', then 'not'. Parentheses group.

# Operators

  - == and != compare numerically when both sides are numbers or booleans,
    otherwise by their string form.
  - <, >, <=, >= compare numerically.
  - contains tests substring containment of the string forms.

# Variables

Identifiers are resolved through Vars at evaluation time. An identifier that
Vars cannot resolve is an evaluation error (ErrUnknownVariable); string
literals must be quoted.

# Truthiness

A bare operand is evaluated for truthiness:

  - nil/null: false
  - bool: the boolean value
  - string: false if empty, true otherwise
  - numbers: false if zero, true otherwise
  - other types: true

# Custom Operators

	e := expr.New(expr.WithCustomOperator("within", func(l, r any) bool {
	    return math.Abs(expr.ToFloat64(l)) < expr.ToFloat64(r)
	}))
	prog, _ := e.Compile("eta within 2.4")
*/
package expr
