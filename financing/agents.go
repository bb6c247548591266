package financing

import (
	"time"

	"github.com/loft/finassist/agent"
	"github.com/loft/finassist/artifact"
)

// Agent names.
const (
	TriageAgentName      = "Triage Agent"
	SimulatorAgentName   = "Simulator Agent"
	ApplicationAgentName = "Application Agent"
	QuestionsAgentName   = "Questions Agent"
)

// Routing keywords per delegate, matched accent- and case-insensitively.
var (
	simulatorKeywords = []string{
		"simular", "simulação", "simulacao", "simule", "quanto ficaria", "parcela", "parcelas",
	}
	applicationKeywords = []string{
		"solicitar", "solicitação", "dar entrada", "financiar", "aplicar", "contratar",
		"pedir financiamento", "quero financiamento",
	}
	questionsKeywords = []string{
		"documentos", "documentação", "horário", "atendimento", "loft", "cet", "custo efetivo",
		"taxa", "juros", "fgts", "itbi", "o que é", "dúvida", "preços", "obrigado", "obrigada",
	}
)

// Options configures the agent graph.
type Options struct {
	// Assets serves the simulation PDF.
	Assets artifact.Store
	// Now stamps application submission dates; nil means time.Now.
	Now func() time.Time
}

// Agents is the financing agent graph.
type Agents struct {
	Triage      *agent.Agent
	Simulator   *agent.Agent
	Application *agent.Agent
	Questions   *agent.Agent
}

// NewAgents wires the four financing agents. Triage delegates, in order, to
// the Simulator, Application and Questions agents.
func NewAgents(optFns ...func(o *Options)) (*Agents, error) {
	opts := Options{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Assets == nil {
		opts.Assets = artifact.NewInMemoryStore()
	}

	simTool, err := NewSimulationTool(opts.Assets)
	if err != nil {
		return nil, err
	}
	appTool, err := NewApplicationTool(opts.Now)
	if err != nil {
		return nil, err
	}

	simulator, err := agent.New(SimulatorAgentName, simulatorInstructions,
		agent.WithDescription("Simula financiamentos imobiliários e envia o PDF da simulação."),
		agent.WithRoutingKeywords(simulatorKeywords...),
		agent.WithTools(simTool),
	)
	if err != nil {
		return nil, err
	}

	application, err := agent.New(ApplicationAgentName, applicationInstructions,
		agent.WithDescription("Coleta os dados do usuário e solicita o financiamento imobiliário."),
		agent.WithRoutingKeywords(applicationKeywords...),
		agent.WithTools(appTool),
	)
	if err != nil {
		return nil, err
	}

	questions, err := agent.New(QuestionsAgentName, questionsInstructions,
		agent.WithDescription("Responde dúvidas gerais sobre o mercado imobiliário e financiamento."),
		agent.WithRoutingKeywords(questionsKeywords...),
	)
	if err != nil {
		return nil, err
	}

	triage, err := agent.New(TriageAgentName, triageInstructions,
		agent.WithDescription("Direciona o usuário para o agente correto."),
		agent.WithDelegates(simulator, application, questions),
	)
	if err != nil {
		return nil, err
	}

	return &Agents{
		Triage:      triage,
		Simulator:   simulator,
		Application: application,
		Questions:   questions,
	}, nil
}
