/*
Package config loads analysis job descriptions from YAML or JSON.

# Job Files

A job names its input, its output container, the filters and scale factors
it uses, and the module graph:

	name: zpeak
	input:
	  events: events.jsonl
	output:
	  path: zpeak.db
	filters:
	  - name: trigger
	    type: trigger
	    params: {triggers: [HLT_IsoMu24]}
	  - name: dimuon
	    type: expr
	    expr: n_muons >= 2
	scale_factors:
	  - name: gen
	    type: var
	    params: {var: genWeight}
	modules:
	  - name: cuts
	    type: filter
	    filters: [trigger, dimuon]
	  - name: histos
	    type: histograms
	    require: [cuts]
	    histograms:
	      - {name: mll, bins: 60, low: 60, high: 120, value: "var:mll", scale_factors: [gen]}

Load and validate a job with LoadJob, or parse bytes with FromYAML and
FromJSON and call Job.Validate. Validation errors match ErrInvalid and are
joined, so every problem is reported at once.

# Variables

Job files may contain ${NAME} placeholders, optionally with a default as
${NAME:-default}. LoadJobWithVars resolves them from the given map and then
from the environment; LoadJob uses the environment only. Placeholders are
replaced in the raw text, before parsing, so they can appear in any value:

	input:
	  events: ${DATA_DIR}/dy_${SAMPLE:-m50}.jsonl

An undefined placeholder without a default is an UndefinedVariableError.

# Parameters

Filters and scale factors carry a free-form params block. Params wraps it
with typed accessors that fall back to a default on a missing key or a type
mismatch:

	p := config.New(f.Params)
	triggers := p.StringSlice("triggers", nil)
	clamp := p.Bool("clamp", false)

Numeric accessors accept both YAML integers and JSON float64 numbers.
*/
package config
