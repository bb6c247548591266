package financing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loft/finassist/model"
)

func simDef() model.FunctionDefinition { return model.FunctionDefinition{Name: SimulationToolName} }

func appDef() model.FunctionDefinition { return model.FunctionDefinition{Name: ApplicationToolName} }

func TestExtractor_FreeText(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name string
		def  model.FunctionDefinition
		text string
		want map[string]any
	}{
		{
			name: "property value with currency",
			def:  simDef(),
			text: "Quanto ficaria o financiamento de um imóvel de R$ 500.000?",
			want: map[string]any{FieldPropertyValue: 500000.0},
		},
		{
			name: "city and uf",
			def:  simDef(),
			text: "Sou pessoa jurídica e o apartamento fica em Campinas - SP, custa 1,2 milhão",
			want: map[string]any{FieldPersonType: "jurídica", FieldCity: "Campinas", FieldState: "SP", FieldPropertyValue: 1200000.0},
		},
		{
			name: "lone amount maps to the single numeric field",
			def:  simDef(),
			text: "uns 350 mil",
			want: map[string]any{FieldPropertyValue: 350000.0},
		},
		{
			name: "application details",
			def:  appDef(),
			text: "Meu nome é Maria Souza, CPF 123.456.789-00, nasci em 5/4/1990 e sou casada. Minha renda é 8 mil e o imóvel vale R$ 400.000,00",
			want: map[string]any{
				FieldFullName:      "Maria Souza",
				FieldCPF:           "12345678900",
				FieldDateOfBirth:   "05/04/1990",
				FieldMaritalStatus: "casado(a)",
				FieldMonthlyIncome: 8000.0,
				FieldPropertyValue: 400000.0,
			},
		},
		{
			name: "small numbers are ignored",
			def:  appDef(),
			text: "tenho 35 anos",
			want: map[string]any{},
		},
		{
			name: "nothing to extract",
			def:  simDef(),
			text: "quero simular um financiamento",
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.def, []model.Exchange{{Text: tt.text}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_BareAnswers(t *testing.T) {
	e := NewExtractor()
	p := ApplicationParams()
	prompt := func(name string) string {
		for _, f := range p {
			if f.Name == name {
				return f.Prompt
			}
		}
		t.Fatalf("no field %s", name)
		return ""
	}

	got := e.Extract(appDef(), []model.Exchange{
		{Text: "quero solicitar um financiamento"},
		{Asked: prompt(FieldFullName), Text: "João da Silva"},
		{Asked: prompt(FieldCPF), Text: "123.456.789-00"},
		{Asked: prompt(FieldDateOfBirth), Text: "01/02/1985"},
		{Asked: prompt(FieldMonthlyIncome), Text: "12000"},
		{Asked: prompt(FieldMaritalStatus), Text: "solteiro"},
		{Asked: prompt(FieldPersonType), Text: "física"},
		{Asked: prompt(FieldPropertyValue), Text: "600 mil"},
		{Asked: "Não consegui entender essa informação. " + prompt(FieldState), Text: "sp"},
		{Asked: prompt(FieldCity), Text: "São Paulo"},
	})

	assert.Equal(t, map[string]any{
		FieldFullName:      "João da Silva",
		FieldCPF:           "12345678900",
		FieldDateOfBirth:   "01/02/1985",
		FieldMonthlyIncome: 12000.0,
		FieldMaritalStatus: "solteiro(a)",
		FieldPersonType:    "física",
		FieldPropertyValue: 600000.0,
		FieldState:         "SP",
		FieldCity:          "São Paulo",
	}, got)
}

func TestExtractor_StateNames(t *testing.T) {
	e := NewExtractor()

	got := e.Extract(simDef(), []model.Exchange{{Asked: "Em qual estado fica o imóvel?", Text: "Mato Grosso do Sul"}})
	assert.Equal(t, "MS", got[FieldState])

	got = e.Extract(simDef(), []model.Exchange{{Text: "vou comprar para morar"}})
	assert.NotContains(t, got, FieldState)

	got = e.Extract(simDef(), []model.Exchange{{Asked: "Em qual estado fica o imóvel?", Text: "Pará"}})
	assert.Equal(t, "PA", got[FieldState])
}

func TestExtractor_UnknownTool(t *testing.T) {
	assert.Nil(t, NewExtractor().Extract(model.FunctionDefinition{Name: "other"}, nil))
}

func TestParseAmount(t *testing.T) {
	tests := map[string]float64{
		"500.000":       500000,
		"R$ 500.000,00": 500000,
		"500 mil":       500000,
		"1,5 milhão":    1500000,
		"2 milhões":     2000000,
		"80k":           80000,
		"1.500.000":     1500000,
		"1234,56":       1234.56,
	}
	for in, want := range tests {
		got, ok := parseAmount(in)
		assert.True(t, ok, in)
		assert.InDelta(t, want, got, 0.001, in)
	}
}
