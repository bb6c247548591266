package financing

import (
	"errors"
	"time"

	"github.com/loft/finassist/artifact"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/tool"
)

// Tool names.
const (
	ApplicationToolName = "apply_for_real_estate_financing"
	SimulationToolName  = "generate_financing_simulation"
)

// SimulationAsset is the static PDF handed out by the simulation tool.
const SimulationAsset = "simulacao.pdf"

// User-facing tool messages.
const (
	ApplicationReceivedMessage = "Sua aplicação de financiamento imobiliário foi recebida com sucesso!"
	SimulationReadyMessage     = "Aqui está o seu documento de simulação de financiamento imobiliário:"
	SimulationMissingMessage   = "Desculpe, o PDF de simulação de financiamento não está disponível no momento."
)

const (
	partnerBank           = "CAIXA Econômica Federal"
	estimatedResponseTime = "5 dias úteis"
)

// ApplicationRequest holds the validated arguments of the application tool.
type ApplicationRequest struct {
	FullName      string  `json:"full_name"`
	CPFNumber     string  `json:"cpf_number"`
	DateOfBirth   string  `json:"date_of_birth"`
	MonthlyIncome float64 `json:"monthly_income"`
	MaritalStatus string  `json:"marital_status"`
	PersonType    string  `json:"person_type"`
	PropertyValue float64 `json:"property_value"`
	State         string  `json:"state"`
	City          string  `json:"city"`
}

// ApplicationResult is returned by the application tool.
type ApplicationResult struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	ConfirmationCode      string `json:"confirmation_code"`
	Bank                  string `json:"bank"`
	SubmissionDate        string `json:"submission_date"`
	EstimatedResponseTime string `json:"estimated_response_time"`
}

// SimulationRequest holds the validated arguments of the simulation tool.
type SimulationRequest struct {
	PersonType    string  `json:"person_type"`
	PropertyValue float64 `json:"property_value"`
	State         string  `json:"state"`
	City          string  `json:"city"`
}

// SimulationResult is returned by the simulation tool. PDFPath and Details
// are only set on success; Error only on failure.
type SimulationResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	PDFPath string             `json:"pdf_path,omitempty"`
	Details *SimulationRequest `json:"simulation_details,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ConfirmationCode derives the application confirmation code from the last
// four characters of the CPF (the whole CPF when shorter).
func ConfirmationCode(cpf string) string {
	r := []rune(cpf)
	if len(r) > 4 {
		r = r[len(r)-4:]
	}
	return "FIN-" + string(r)
}

// NewApplicationTool builds apply_for_real_estate_financing. now stamps the
// submission date; nil means time.Now.
func NewApplicationTool(now func() time.Time) (tool.Tool, error) {
	if now == nil {
		now = time.Now
	}

	t, err := tool.NewStructTool(
		ApplicationToolName,
		"Envia a solicitação de financiamento imobiliário do usuário ao banco parceiro.",
		ApplicationParams(),
		func(tc *core.ToolContext, req ApplicationRequest) (any, error) {
			tc.LogInfo(
				"financing.application.submitted",
				"person_type", req.PersonType,
				"property_value", req.PropertyValue,
				"city", req.City,
				"state", req.State,
			)

			return ApplicationResult{
				Success:               true,
				Message:               ApplicationReceivedMessage,
				ConfirmationCode:      ConfirmationCode(req.CPFNumber),
				Bank:                  partnerBank,
				SubmissionDate:        now().Format("02/01/2006"),
				EstimatedResponseTime: estimatedResponseTime,
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NewSimulationTool builds generate_financing_simulation over the asset
// store. A missing PDF is reported in the result, not as an error.
func NewSimulationTool(assets artifact.Store) (tool.Tool, error) {
	if assets == nil {
		return nil, core.ConfigErrorf("financing.NewSimulationTool", "asset store is required")
	}

	t, err := tool.NewStructTool(
		SimulationToolName,
		"Gera uma simulação de financiamento imobiliário e devolve o PDF da simulação.",
		SimulationParams(),
		func(tc *core.ToolContext, req SimulationRequest) (any, error) {
			path, err := assets.Locate(tc.Context(), SimulationAsset)
			if errors.Is(err, artifact.ErrNotFound) {
				tc.LogWarn("financing.simulation.asset_missing", "path", path)
				return SimulationResult{
					Success: false,
					Message: SimulationMissingMessage,
					Error:   "Arquivo PDF não encontrado em: " + path,
				}, nil
			}
			if err != nil {
				return nil, err
			}

			tc.LogInfo(
				"financing.simulation.generated",
				"person_type", req.PersonType,
				"property_value", req.PropertyValue,
				"city", req.City,
				"state", req.State,
			)

			details := req
			return SimulationResult{
				Success: true,
				Message: SimulationReadyMessage,
				PDFPath: path,
				Details: &details,
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}
