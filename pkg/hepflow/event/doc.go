/*
Package event defines the read-only per-event view consumed by hepflow modules
and the sources that produce those views.

# Views

A View is the accessor for one collision event: its identifier, the
reconstructed object collections, generator-level truth, trigger decisions,
missing transverse energy and a flat map of named scalar variables.

	rec := event.NewRecord(event.ID{Run: 1, Lumi: 3, Event: 42}).
	    WithVar("met", 35.2).
	    WithTrigger("HLT_IsoMu24", true).
	    WithCollection("muons", event.Object{Pt: 31.5, Eta: 0.4, Phi: 1.2, Charge: -1})

A View is valid for one iteration of the event loop only. Modules must not
retain it after Process returns.

# Sources

Source produces views in order. The end of the sequence is reported with
ok == false, never with an error:

	for {
	    v, ok, err := src.Next(ctx)
	    if err != nil {
	        return err // access failure
	    }
	    if !ok {
	        break // exhausted
	    }
	    ...
	}

Implementations:
  - SliceSource: in-memory, restartable with Reset
  - JSONLSource: one JSON encoded Record per line
  - Zip: pairs a truth source with a reconstructed source so that every
    reconstructed view carries its truth companion (see TruthOf)
*/
package event
