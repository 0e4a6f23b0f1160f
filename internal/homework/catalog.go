package homework

import "sort"

const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

var verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable sentence for a status code.
func Verdict(status string) (string, bool) {
	v, ok := verdicts[status]
	return v, ok
}

// Statuses lists the known status codes in sorted order.
func Statuses() []string {
	out := make([]string, 0, len(verdicts))
	for k := range verdicts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
