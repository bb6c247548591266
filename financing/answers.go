package financing

import (
	"fmt"
	"strings"

	"github.com/loft/finassist/memory"
	"github.com/loft/finassist/model"
)

type faqEntry struct {
	keywords []string
	answer   string
}

var faq = []faqEntry{
	{
		keywords: []string{"documentos", "documentação", "documento"},
		answer:   "Claro, vamos descomplicar! Para comprar um imóvel no Brasil, você precisará de documentos como RG, CPF, comprovante de renda, comprovante de residência e certidão de estado civil, entre outros. 📄",
	},
	{
		keywords: []string{"horário", "atendimento"},
		answer:   "Nosso atendimento por aqui funciona 24 horas, todos os dias! Pode mandar sua dúvida quando quiser. ⏰",
	},
	{
		keywords: []string{"loft"},
		answer:   "A Loft é uma plataforma que simplifica a compra, a venda e o financiamento de imóveis no Brasil, tudo de um jeito bem prático! 🏡",
	},
	{
		keywords: []string{"cet", "custo efetivo"},
		answer:   "O CET (Custo Efetivo Total) é o custo completo do financiamento: juros, seguros, tarifas e impostos, tudo somado em uma única taxa. É o melhor número para comparar propostas! 💡",
	},
	{
		keywords: []string{"taxa", "juros"},
		answer:   "As taxas de juros do financiamento imobiliário variam conforme o banco, o seu perfil e o valor de entrada. Vale sempre comparar o CET das propostas! Se quiser, posso fazer uma simulação para você. 📊",
	},
	{
		keywords: []string{"fgts"},
		answer:   "Boa notícia: dá para usar o saldo do FGTS para dar entrada ou amortizar o financiamento, desde que você cumpra as regras do programa! 💰",
	},
	{
		keywords: []string{"itbi"},
		answer:   "O ITBI é o imposto municipal cobrado na transferência do imóvel. A alíquota varia de cidade para cidade, normalmente entre 2% e 3% do valor do imóvel. 🏛️",
	},
	{
		keywords: []string{"preços", "preço", "mercado"},
		answer:   "Nossa, o mercado está animado! Os preços variam bastante conforme a cidade e a localização, mas a tendência recente tem sido de alta. 🏙️",
	},
	{
		keywords: []string{"obrigado", "obrigada", "valeu"},
		answer:   "Imagina, foi um prazer ajudar! Se precisar de mais alguma coisa, é só chamar. 😊",
	},
}

// FAQ answers common real-estate questions for the Questions agent.
type FAQ struct {
	kb *memory.InMemoryStore
}

// NewFAQ returns the financing FAQ answerer seeded with the built-in entries.
func NewFAQ() *FAQ {
	kb := memory.NewInMemoryStore()
	for _, e := range faq {
		// Entries are static and always carry content and keywords.
		_, _ = kb.Store(e.answer, e.keywords, nil)
	}
	return &FAQ{kb: kb}
}

// Answer implements model.Answerer. The entry with the most keyword hits
// wins; with none the friendly greeting is returned.
func (f *FAQ) Answer(_ string, question string) string {
	hits := f.kb.Search(question, 1)
	if len(hits) == 0 {
		return model.DefaultAnswer
	}
	return hits[0].Content
}

// Presenter renders financing tool results for WhatsApp.
type Presenter struct{}

// NewPresenter returns the financing result presenter.
func NewPresenter() *Presenter { return &Presenter{} }

// Present implements model.Presenter.
func (Presenter) Present(toolName string, response any, errText string) string {
	if errText != "" {
		return model.PresentGeneric(nil, errText)
	}

	switch toolName {
	case ApplicationToolName:
		var res ApplicationResult
		if !decode(response, &res) {
			break
		}
		return fmt.Sprintf("%s ✅\nCódigo de confirmação: %s\nBanco: %s\nData de envio: %s\nPrazo estimado de resposta: %s",
			res.Message, res.ConfirmationCode, res.Bank, res.SubmissionDate, res.EstimatedResponseTime)

	case SimulationToolName:
		var res SimulationResult
		if !decode(response, &res) {
			break
		}
		if !res.Success {
			return res.Message
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n📄 %s", res.Message, res.PDFPath)
		if d := res.Details; d != nil {
			fmt.Fprintf(&b, "\nPessoa %s, imóvel de %s em %s/%s.", d.PersonType, FormatBRL(d.PropertyValue), d.City, d.State)
		}
		return b.String()
	}

	return model.PresentGeneric(response, "")
}

// FormatBRL renders v as "R$ 1.234.567,89".
func FormatBRL(v float64) string {
	cents := int64(v*100 + 0.5)
	whole, frac := cents/100, cents%100

	s := fmt.Sprintf("%d", whole)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}

	return fmt.Sprintf("R$ %s,%02d", out, frac)
}
