package financing

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/loft/finassist/internal/util"
	"github.com/loft/finassist/model"
	"github.com/loft/finassist/tool"
)

var (
	cpfPattern    = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	datePattern   = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`)
	moneyPattern  = regexp.MustCompile(`(?i)(r\$\s*)?(\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?|\d+(?:[.,]\d{1,2})?)\s*(milh(?:ão|ões|ao|oes)|mil|k)?`)
	namePattern   = regexp.MustCompile(`(?i)(?:meu nome(?: completo)? é|meu nome(?: completo)? e|me chamo|nome completo:|nome:)\s+([\p{L}' ]+)`)
	cityUFPattern = regexp.MustCompile(`([A-ZÀ-Ý][\p{L}']+(?:\s+(?:d[aeo]s?\s+)?[A-ZÀ-Ý][\p{L}']+)*)\s*[-/,]\s*([A-Z]{2})\b`)
	cityPattern   = regexp.MustCompile(`(?i:cidade)\s+(?:de\s+|é\s+|e\s+)?([A-ZÀ-Ý][\p{L}']+(?:\s+(?:d[aeo]s?\s+)?[A-ZÀ-Ý][\p{L}']+)*)`)
)

var incomeWords = []string{"renda", "salario", "ganho", "recebo", "ganhando"}

var propertyWords = []string{"imovel", "apartamento", "casa", "valor", "custa", "vale", "terreno"}

// states maps folded state names to their UF code.
var states = map[string]string{
	"acre": "AC", "alagoas": "AL", "amapa": "AP", "amazonas": "AM", "bahia": "BA",
	"ceara": "CE", "distrito federal": "DF", "espirito santo": "ES", "goias": "GO",
	"maranhao": "MA", "mato grosso": "MT", "mato grosso do sul": "MS", "minas gerais": "MG",
	"para": "PA", "paraiba": "PB", "parana": "PR", "pernambuco": "PE", "piaui": "PI",
	"rio de janeiro": "RJ", "rio grande do norte": "RN", "rio grande do sul": "RS",
	"rondonia": "RO", "roraima": "RR", "santa catarina": "SC", "sao paulo": "SP",
	"sergipe": "SE", "tocantins": "TO",
}

// stateNames lists the names longest first so "mato grosso do sul" wins over
// "mato grosso".
var stateNames = func() []string {
	names := make([]string, 0, len(states))
	for n := range states {
		names = append(names, n)
	}
	slices.SortFunc(names, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return names
}()

var maritalStatuses = []struct {
	words []string
	value string
}{
	{[]string{"uniao estavel"}, "união estável"},
	{[]string{"solteiro", "solteira"}, "solteiro(a)"},
	{[]string{"casado", "casada"}, "casado(a)"},
	{[]string{"divorciado", "divorciada"}, "divorciado(a)"},
	{[]string{"separado", "separada"}, "separado(a)"},
	{[]string{"viuvo", "viuva"}, "viúvo(a)"},
}

// Extractor fills financing tool arguments from Portuguese free text. It
// recognises explicit values anywhere in the conversation (CPF, dates, UF
// codes, amounts with context) and attributes bare answers to the field the
// assistant asked for.
type Extractor struct {
	params map[string][]tool.Param
}

// NewExtractor returns an extractor for both financing tools.
func NewExtractor() *Extractor {
	return &Extractor{params: map[string][]tool.Param{
		SimulationToolName:  SimulationParams(),
		ApplicationToolName: ApplicationParams(),
	}}
}

// Extract implements model.ArgumentExtractor. Later messages override
// earlier ones.
func (e *Extractor) Extract(def model.FunctionDefinition, exchanges []model.Exchange) map[string]any {
	params, ok := e.params[def.Name]
	if !ok {
		return nil
	}

	wanted := map[string]bool{}
	var numeric []string
	for _, p := range params {
		wanted[p.Name] = true
		if p.Type == "number" {
			numeric = append(numeric, p.Name)
		}
	}

	out := map[string]any{}
	for _, ex := range exchanges {
		asked, hasAsked := askedField(params, ex.Asked)

		found, loose := scan(ex.Text, hasAsked && asked.Name == FieldCity)

		if hasAsked {
			if _, got := found[asked.Name]; !got {
				if v, ok := bareValue(asked, ex.Text); ok {
					found[asked.Name] = v
				}
			}
		} else if len(loose) == 1 && len(numeric) == 1 {
			// a lone amount can only mean the single numeric field
			found[numeric[0]] = loose[0]
		}

		for k, v := range found {
			if wanted[k] {
				out[k] = v
			}
		}
	}

	return out
}

// askedField finds the parameter whose prompt the assistant asked.
func askedField(params []tool.Param, asked string) (tool.Param, bool) {
	if asked == "" {
		return tool.Param{}, false
	}
	for _, p := range params {
		if p.Prompt != "" && strings.Contains(asked, p.Prompt) {
			return p, true
		}
	}
	return tool.Param{}, false
}

// scan extracts every value it can recognise without knowing the question.
// Amounts without a context word are returned as loose.
func scan(text string, skipStateNames bool) (map[string]any, []float64) {
	found := map[string]any{}

	rest := text
	if m := cpfPattern.FindString(rest); m != "" {
		found[FieldCPF] = digits(m)
		rest = strings.Replace(rest, m, " ", 1)
	}
	if loc := datePattern.FindStringSubmatchIndex(rest); loc != nil {
		if d, ok := normalizeDate(rest[loc[0]:loc[1]]); ok {
			found[FieldDateOfBirth] = d
		}
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	}

	if v, ok := personType(text); ok {
		found[FieldPersonType] = v
	}
	if v, ok := maritalStatus(text); ok {
		found[FieldMaritalStatus] = v
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		if name := trimName(m[1]); name != "" {
			found[FieldFullName] = name
		}
	}

	if m := cityUFPattern.FindStringSubmatch(text); m != nil && isUF(m[2]) {
		found[FieldCity] = strings.TrimSpace(m[1])
		found[FieldState] = m[2]
	} else {
		if m := cityPattern.FindStringSubmatch(text); m != nil {
			found[FieldCity] = strings.TrimSpace(m[1])
		}
		if uf, ok := stateCode(text, skipStateNames); ok {
			found[FieldState] = uf
		}
	}

	var loose []float64
	prev := 0
	for _, loc := range moneyPattern.FindAllStringSubmatchIndex(rest, -1) {
		value, ok := parseAmount(rest[loc[0]:loc[1]])
		before := util.Fold(rest[prev:loc[0]])
		prev = loc[1]
		if !ok {
			continue
		}
		hasCurrency := loc[2] >= 0
		hasMultiplier := loc[6] >= 0
		if value < 1000 && !hasCurrency && !hasMultiplier {
			continue
		}

		switch lastKeyword(before) {
		case FieldMonthlyIncome:
			found[FieldMonthlyIncome] = value
		case FieldPropertyValue:
			found[FieldPropertyValue] = value
		default:
			loose = append(loose, value)
		}
	}

	return found, loose
}

// bareValue interprets text as a direct answer for p.
func bareValue(p tool.Param, text string) (any, bool) {
	text = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ".!"))
	if text == "" {
		return nil, false
	}

	switch p.Name {
	case FieldPersonType:
		return personType(text)
	case FieldMaritalStatus:
		if v, ok := maritalStatus(text); ok {
			return v, true
		}
		return text, true
	case FieldState:
		if uf, ok := stateCode(text, false); ok {
			return uf, true
		}
		if isUF(strings.ToUpper(text)) {
			return strings.ToUpper(text), true
		}
		return nil, false
	case FieldDateOfBirth:
		return normalizeDate(text)
	case FieldCPF:
		if d := digits(text); len(d) == 11 {
			return d, true
		}
		return text, true
	}

	if p.Type == "number" {
		if m := moneyPattern.FindString(text); m != "" {
			return parseAmount(m)
		}
		return nil, false
	}

	return text, true
}

func personType(text string) (string, bool) {
	switch {
	case util.ContainsPhrase(text, "juridica"), util.ContainsPhrase(text, "pj"),
		util.ContainsPhrase(text, "cnpj"), util.ContainsPhrase(text, "empresa"):
		return "jurídica", true
	case util.ContainsPhrase(text, "fisica"), util.ContainsPhrase(text, "pf"):
		return "física", true
	}
	return "", false
}

func maritalStatus(text string) (string, bool) {
	for _, s := range maritalStatuses {
		for _, w := range s.words {
			if util.ContainsPhrase(text, w) {
				return s.value, true
			}
		}
	}
	return "", false
}

// stateCode finds an uppercase UF code or a state name in text. "Pará" is
// only recognised after "estado do" since "para" is a common preposition.
func stateCode(text string, skipNames bool) (string, bool) {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z')
	}) {
		if len(tok) == 2 && tok == strings.ToUpper(tok) && isUF(tok) {
			return tok, true
		}
	}

	if skipNames {
		return "", false
	}

	folded := util.Fold(text)
	for _, name := range stateNames {
		if name == "para" {
			if util.ContainsPhrase(folded, "estado do para") || strings.TrimSpace(folded) == "para" {
				return states[name], true
			}
			continue
		}
		if util.ContainsPhrase(folded, name) {
			return states[name], true
		}
	}

	return "", false
}

func isUF(s string) bool {
	for _, uf := range states {
		if uf == s {
			return true
		}
	}
	return false
}

// lastKeyword reports which numeric field the context text talks about last.
func lastKeyword(folded string) string {
	best, field := -1, ""
	for _, w := range incomeWords {
		if i := strings.LastIndex(folded, w); i > best {
			best, field = i, FieldMonthlyIncome
		}
	}
	for _, w := range propertyWords {
		if i := strings.LastIndex(folded, w); i > best {
			best, field = i, FieldPropertyValue
		}
	}
	return field
}

// parseAmount reads a Brazilian amount such as "R$ 500.000,00", "500 mil"
// or "1,5 milhão".
func parseAmount(s string) (float64, bool) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	num := m[2]
	if strings.Contains(num, ",") || strings.Count(num, ".") > 1 || (strings.Contains(num, ".") && len(num)-strings.LastIndex(num, ".") == 4) {
		num = strings.ReplaceAll(num, ".", "")
		num = strings.ReplaceAll(num, ",", ".")
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}

	switch suffix := util.Fold(m[3]); {
	case strings.HasPrefix(suffix, "milh"):
		v *= 1_000_000
	case suffix == "mil", suffix == "k":
		v *= 1_000
	}

	return v, true
}

func normalizeDate(s string) (string, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	d := fmt.Sprintf("%02d/%02d/%s", day, month, m[3])
	if _, err := time.Parse("02/01/2006", d); err != nil {
		return "", false
	}
	return d, true
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimName(s string) string {
	s = strings.TrimSpace(s)
	for _, stop := range []string{" e ", " tenho ", " sou ", " moro "} {
		if i := strings.Index(strings.ToLower(s), stop); i > 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
