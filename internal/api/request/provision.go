package request

// Provision is the body of POST /provision. An empty template_id falls back
// to the server's default template; the template itself is only resolved at
// the generation step, so an unknown name fails the job there rather than
// the request here.
type Provision struct {
	BlogName     string `json:"blog_name" validate:"required,min=1,max=120"`
	Subdomain    string `json:"subdomain" validate:"required,subdomain"`
	CustomDomain string `json:"custom_domain" validate:"omitempty,fqdn"`
	OwnerEmail   string `json:"owner_email" validate:"required,email"`
	OwnerName    string `json:"owner_name" validate:"omitempty,max=120"`
	Theme        string `json:"theme" validate:"omitempty,max=64"`
	PrimaryColor string `json:"primary_color" validate:"omitempty,hexcolor"`
	Niche        string `json:"niche" validate:"omitempty,max=64"`
	Description  string `json:"description" validate:"omitempty,max=500"`
	TemplateID   string `json:"template_id" validate:"omitempty,max=64"`
	CallbackURL  string `json:"callback_url" validate:"omitempty,url"`
}

// reservedSubdomains are platform-owned labels under the base domain that
// tenants can never claim.
var reservedSubdomains = map[string]struct{}{
	"www":     {},
	"api":     {},
	"admin":   {},
	"app":     {},
	"mail":    {},
	"smtp":    {},
	"imap":    {},
	"ns1":     {},
	"ns2":     {},
	"cdn":     {},
	"assets":  {},
	"static":  {},
	"status":  {},
	"docs":    {},
	"metrics": {},
	"staging": {},
}

// ReservedSubdomain reports whether the label is reserved for platform use.
func ReservedSubdomain(s string) bool {
	_, ok := reservedSubdomains[s]
	return ok
}
