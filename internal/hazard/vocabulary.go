package hazard

// Vocabulary is the ordered list of hazard statement codes searched for in
// raw mode. It also fixes the column order of the detail matrix.
//
// H241 is listed twice and must stay that way: the detail matrix emits one
// column per entry, duplicates included.
var Vocabulary = []string{
	"H200", "H201", "H202", "H203", "H204", "H205", "H206", "H207",
	"H208", "H220", "H221", "H222", "H223", "H224", "H225", "H226",
	"H228", "H229", "H230", "H231", "H232", "H240", "H241", "H241",
	"H242", "H250", "H251", "H252", "H260", "H261", "H270", "H271",
	"H272", "H280", "H281", "H290", "H300", "H301", "H302", "H304",
	"H310", "H311", "H312", "H314", "H315", "H317", "H318", "H319",
	"H330", "H331", "H332", "H334", "H335", "H336", "H340", "H341",
	"H350", "H350i", "H351", "H360", "H360F", "H360D", "H360FD", "H360Fd",
	"H360Df", "H361", "H361f", "H361d", "H361fd", "H362", "H370", "H371",
	"H372", "H373", "H400", "H410", "H411", "H412", "H413", "H420",
}

// Codes returns a copy of Vocabulary.
func Codes() []string {
	out := make([]string, len(Vocabulary))
	copy(out, Vocabulary)
	return out
}

// Contains reports whether term is part of the fixed vocabulary.
func Contains(term string) bool {
	for _, code := range Vocabulary {
		if code == term {
			return true
		}
	}
	return false
}
