package billing

// FindDuplicate scans every line except index for code.
// It returns the first conflicting line index.
func FindDuplicate(doc Document, index int, code string) (int, bool) {
	if code == "" {
		return -1, false
	}
	for i, l := range doc.Lines {
		if i == index {
			continue
		}
		if l.ItemCode == code {
			return i, true
		}
	}
	return -1, false
}
