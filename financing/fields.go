package financing

import "github.com/loft/finassist/tool"

// Field names shared by both financing tools.
const (
	FieldFullName      = "full_name"
	FieldCPF           = "cpf_number"
	FieldDateOfBirth   = "date_of_birth"
	FieldMonthlyIncome = "monthly_income"
	FieldMaritalStatus = "marital_status"
	FieldPersonType    = "person_type"
	FieldPropertyValue = "property_value"
	FieldState         = "state"
	FieldCity          = "city"
)

var (
	personTypeParam = tool.Param{
		Name:        FieldPersonType,
		Type:        "string",
		Description: "Tipo de pessoa: física ou jurídica",
		Prompt:      "Você é pessoa física ou jurídica?",
		Keywords:    []string{"pessoa física", "pessoa jurídica", "tipo de pessoa"},
	}
	propertyValueParam = tool.Param{
		Name:        FieldPropertyValue,
		Type:        "number",
		Description: "Valor do imóvel em reais",
		Prompt:      "Qual é o valor do imóvel?",
		Keywords:    []string{"valor do imóvel", "valor", "imóvel"},
	}
	stateParam = tool.Param{
		Name:        FieldState,
		Type:        "string",
		Description: "Estado (UF) onde o imóvel está localizado",
		Prompt:      "Em qual estado fica o imóvel?",
		Keywords:    []string{"estado", "UF"},
	}
	cityParam = tool.Param{
		Name:        FieldCity,
		Type:        "string",
		Description: "Cidade onde o imóvel está localizado",
		Prompt:      "Em qual cidade fica o imóvel?",
		Keywords:    []string{"cidade", "município"},
	}
)

// SimulationParams is the ordered parameter list of the simulation tool.
func SimulationParams() []tool.Param {
	return []tool.Param{personTypeParam, propertyValueParam, stateParam, cityParam}
}

// ApplicationParams is the ordered parameter list of the application tool.
func ApplicationParams() []tool.Param {
	return []tool.Param{
		{
			Name:        FieldFullName,
			Type:        "string",
			Description: "Nome completo",
			Prompt:      "Qual é o seu nome completo?",
			Keywords:    []string{"nome completo", "nome"},
		},
		{
			Name:        FieldCPF,
			Type:        "string",
			Description: "Número do CPF",
			Prompt:      "Qual é o número do seu CPF?",
			Keywords:    []string{"CPF"},
		},
		{
			Name:        FieldDateOfBirth,
			Type:        "string",
			Description: "Data de nascimento (dd/mm/aaaa)",
			Prompt:      "Qual é a sua data de nascimento? (dd/mm/aaaa)",
			Keywords:    []string{"data de nascimento", "nascimento"},
		},
		{
			Name:        FieldMonthlyIncome,
			Type:        "number",
			Description: "Renda mensal em reais",
			Prompt:      "Qual é a sua renda mensal?",
			Keywords:    []string{"renda mensal", "renda", "salário"},
		},
		{
			Name:        FieldMaritalStatus,
			Type:        "string",
			Description: "Estado civil",
			Prompt:      "Qual é o seu estado civil?",
			Keywords:    []string{"estado civil"},
		},
		personTypeParam,
		propertyValueParam,
		stateParam,
		cityParam,
	}
}
