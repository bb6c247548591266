package evaluation

// DefaultCases covers triage routing and the first question each specialist
// asks when data is missing.
func DefaultCases() []Case {
	return []Case{
		{
			Name:          "simulation request goes to the simulator",
			Conversation:  []string{"Quero simular um financiamento"},
			ExpectedAgent: "simulator_agent",
			MissingFields: []string{"person_type"},
		},
		{
			Name:          "installment question goes to the simulator",
			Conversation:  []string{"Quanto ficaria a parcela do meu financiamento?"},
			ExpectedAgent: "simulator_agent",
		},
		{
			Name:          "application request goes to the application agent",
			Conversation:  []string{"Quero solicitar um financiamento"},
			ExpectedAgent: "application_agent",
			MissingFields: []string{"full_name"},
		},
		{
			Name:          "down payment goes to the application agent",
			Conversation:  []string{"Quero dar entrada no financiamento do meu apartamento"},
			ExpectedAgent: "application_agent",
		},
		{
			Name:          "CET question goes to the questions agent",
			Conversation:  []string{"O que é CET?"},
			ExpectedAgent: "questions_agent",
			Contains:      []string{"custo efetivo total"},
		},
		{
			Name:          "documents question goes to the questions agent",
			Conversation:  []string{"Quais documentos preciso para comprar um imóvel?"},
			ExpectedAgent: "questions_agent",
			Contains:      []string{"cpf"},
		},
		{
			Name:          "FGTS question goes to the questions agent",
			Conversation:  []string{"Posso usar o FGTS?"},
			ExpectedAgent: "questions_agent",
			Contains:      []string{"fgts"},
		},
		{
			Name:          "greeting falls back to the questions agent",
			Conversation:  []string{"Bom dia"},
			ExpectedAgent: "questions_agent",
			Contains:      []string{"loft"},
		},
		{
			Name:          "simulator asks for the state after the property value",
			Conversation:  []string{"quero simular um financiamento", "pessoa física", "500 mil"},
			ExpectedAgent: "simulator_agent",
			MissingFields: []string{"state"},
		},
		{
			Name:          "application asks for the birth date after name and CPF",
			Conversation:  []string{"Quero solicitar um financiamento", "Meu nome é Maria Souza, CPF 123.456.789-00"},
			ExpectedAgent: "application_agent",
			MissingFields: []string{"date_of_birth"},
		},
	}
}
