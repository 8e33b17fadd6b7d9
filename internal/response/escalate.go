package response

import (
	"regexp"
	"strings"

	"github.com/keshon/moodbot/internal/chance"
)

// HostileEmoji is the set an escalated reply is prefixed with.
var HostileEmoji = []string{"😡", "🤬", "👿", "💢", "😤", "🖕"}

// angerEmoji already mark a reply as escalated.
var angerEmoji = []string{"😡", "🤬"}

type substitution struct {
	re    *regexp.Regexp
	harsh string
}

// softToHarsh is applied to the uppercased text. Phrases match as whole
// words; letters and digits of any script count as word characters.
var softToHarsh = compileSubstitutions([][2]string{
	{"пожалуйста", "БЫСТРО"},
	{"спасибо", "ОТВАЛИ"},
	{"извини", "ОТСТАНЬ"},
	{"привет", "ЧЕГО ТЕБЕ"},
	{"не знаю", "ДА ПЛЕВАТЬ"},
	{"может быть", "ДА КОНЕЧНО"},
	{"хорошо", "ДА ПЛЕВАТЬ"},
	{"плохо", "ОТВРАТИТЕЛЬНО"},
	{"глупый", "ТУПОЙ"},
	{"странно", "БРЕД"},
	{"друг", "ВРАГ"},
	{"слушай", "СЛЫШЬ"},
	{"ну и", "ДА ЧТОБ ТЕБЯ"},
	{"вот это", "ВОТ ЭТА ДРЯНЬ"},
})

func compileSubstitutions(table [][2]string) []substitution {
	out := make([]substitution, 0, len(table))
	for _, pair := range table {
		soft := regexp.QuoteMeta(strings.ToUpper(pair[0]))
		soft = strings.ReplaceAll(soft, " ", `\s+`)
		out = append(out, substitution{
			re:    regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + soft + `([^\p{L}\p{N}]|$)`),
			harsh: "${1}" + pair[1] + "${2}",
		})
	}
	return out
}

// Escalate intensifies text: uppercase, soft phrases replaced by harsh ones
// and a hostile emoji in front unless an anger emoji is already present.
// Only the emoji pick draws from rnd.
func Escalate(text string, rnd chance.Source) string {
	out := Harden(text)
	if containsAny(out, angerEmoji) {
		return out
	}
	return chance.Pick(rnd, HostileEmoji) + " " + out
}

// Harden applies the uppercase and substitution steps of Escalate.
func Harden(text string) string {
	out := strings.ToUpper(text)
	for _, s := range softToHarsh {
		// adjacent matches share a separator, so a second pass catches the rest
		for range 2 {
			out = s.re.ReplaceAllString(out, s.harsh)
		}
	}
	return out
}

func containsAny(s string, set []string) bool {
	for _, e := range set {
		if strings.Contains(s, e) {
			return true
		}
	}
	return false
}
