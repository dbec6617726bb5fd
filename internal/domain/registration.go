package domain

// RegistrationStep is the wizard page the caller should submit next
type RegistrationStep int

const (
	StepCustomer  RegistrationStep = 1
	StepIntent    RegistrationStep = 2
	StepSelection RegistrationStep = 3
	StepDetails   RegistrationStep = 4
)

// RegistrationIntent is what the customer came in for
type RegistrationIntent string

const (
	IntentService RegistrationIntent = "service"
	IntentSales   RegistrationIntent = "sales"
	IntentInquiry RegistrationIntent = "inquiry"
)

func (i RegistrationIntent) IsValid() bool {
	return i == IntentService || i == IntentSales || i == IntentInquiry
}

// OrderType maps the intent to the kind of order created at the last step
func (i RegistrationIntent) OrderType() OrderType {
	switch i {
	case IntentSales:
		return OrderTypeSales
	case IntentInquiry:
		return OrderTypeConsultation
	default:
		return OrderTypeService
	}
}

// ServiceOptions are the service sub-types offered at the selection step
var ServiceOptions = []string{
	"oil_change",
	"engine_diagnostics",
	"brake_repair",
	"tire_rotation",
	"wheel_alignment",
	"battery_check",
	"fluid_top_up",
	"general_maintenance",
	"other",
}

// SalesOptions are the sales sub-types offered at the selection step
var SalesOptions = []string{
	"tire_sales",
	"parts_sales",
	"oil_sales",
	"battery_sales",
	"accessories",
	"other",
}

// CustomerStepData is staged by the first step
type CustomerStepData struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// SelectionStepData is staged by the third step
type SelectionStepData struct {
	Services  []string `json:"services,omitempty"`
	SalesType string   `json:"salesType,omitempty"`
}

// RegistrationState is the whole wizard state. It is passed in and returned by
// each step; the caller owns where it is kept between requests.
type RegistrationState struct {
	Step      RegistrationStep    `json:"step"`
	Customer  *CustomerStepData   `json:"customer,omitempty"`
	Intent    *RegistrationIntent `json:"intent,omitempty"`
	Selection *SelectionStepData  `json:"selection,omitempty"`
}

// NewRegistrationState returns a wizard positioned at the first step
func NewRegistrationState() RegistrationState {
	return RegistrationState{Step: StepCustomer}
}
