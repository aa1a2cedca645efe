package stubservice

// The stub's reconciliation is deliberately naive: a schedule spot is
// matched when some Nilson row agrees on every column the two tables
// share (rate columns excluded). The real engine's fuzzy matching stays
// out of scope; this exists so the client workflow can be exercised
// end to end.

var rateColumns = map[string]bool{
	"Rate Card Rate":  true,
	"Negotiated Rate": true,
}

const roColumn = "RO Number"

// reconcile splits the schedule into matched and unmatched spots and
// returns a copy of the Nilson table with the RO number stamped onto the
// rows that matched.
func reconcile(schedule, nilson *Table, roNumber string) (unmatched, stamped *Table, matchedInNilson int) {
	keys := sharedKeyColumns(schedule, nilson)

	stamped = &Table{Columns: append([]string{}, nilson.Columns...)}
	hasRO := false
	for _, c := range stamped.Columns {
		if c == roColumn {
			hasRO = true
		}
	}
	if !hasRO {
		stamped.Columns = append(stamped.Columns, roColumn)
	}
	for _, r := range nilson.Rows {
		row := make(map[string]string, len(r)+1)
		for k, v := range r {
			row[k] = v
		}
		if _, ok := row[roColumn]; !ok {
			row[roColumn] = ""
		}
		stamped.Rows = append(stamped.Rows, row)
	}

	unmatched = &Table{Columns: append([]string{}, schedule.Columns...)}

	for _, spot := range schedule.Rows {
		found := false
		if len(keys) > 0 {
			for _, row := range stamped.Rows {
				if rowsAgree(spot, row, keys) {
					if row[roColumn] != roNumber {
						row[roColumn] = roNumber
						matchedInNilson++
					}
					found = true
					break
				}
			}
		}
		if !found {
			unmatched.Rows = append(unmatched.Rows, spot)
		}
	}

	return unmatched, stamped, matchedInNilson
}

func sharedKeyColumns(a, b *Table) []string {
	inB := make(map[string]bool, len(b.Columns))
	for _, c := range b.Columns {
		inB[c] = true
	}

	var keys []string
	for _, c := range a.Columns {
		if inB[c] && !rateColumns[c] && c != roColumn {
			keys = append(keys, c)
		}
	}
	return keys
}

func rowsAgree(a, b map[string]string, keys []string) bool {
	for _, k := range keys {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
