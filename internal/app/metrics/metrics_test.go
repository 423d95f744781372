package metrics

import (
	"testing"
)

func TestRecordTransactionCollapsesUnknownActions(t *testing.T) {
	RecordTransaction("DEPOSIT", "committed")
	RecordTransaction("payment", "committed")
	RecordTransaction("TRANSFER", "rejected")
	RecordTransaction("garbage-1", "rejected")
	RecordTransaction("", "invalid")

	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	actions := make(map[string]bool)
	for _, mf := range families {
		if mf.GetName() != "balance_service_ledger_transactions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "action" {
					actions[lp.GetValue()] = true
				}
			}
		}
	}

	for action := range actions {
		if action != "DEPOSIT" && action != "PAYMENT" && action != "UNKNOWN" {
			t.Fatalf("unexpected action label minted: %q", action)
		}
	}
	if !actions["UNKNOWN"] {
		t.Fatalf("invalid actions were not collapsed: %v", actions)
	}
}
