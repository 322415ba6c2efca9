package template

import "html/template"

// Branding is the corporate identity printed in page chrome.
type Branding struct {
	Company     string
	Tagline     string
	Motto       string
	Website     string
	Email       string
	Address     string
	Logo        template.URL
	PartnerLogo template.URL
}

// DefaultBranding is the identity used by all built-in templates.
var DefaultBranding = Branding{
	Company:     "Demart Muhendislik San. Tic. Ltd. Sti",
	Tagline:     "The art of Design Engineering Maintenance",
	Motto:       "Guvenligi, Verimliligi ve Gelecegi Bir Arada Koruyun",
	Website:     "www.demart.com.tr",
	Email:       "info@demart.com.tr",
	Address:     "VeliBaba Mah. Ertugrul Gazi Cad. No 82/1, 35852 Pendik Istanbul TURKIYE",
	Logo:        "https://customer-assets.emergentagent.com/job_sofis-marketing-exe/artifacts/8cw43hdp_logo%20sosn.jpg",
	PartnerLogo: "https://customer-assets.emergentagent.com/job_ffb90a8b-8cf3-4732-bc1d-c708d6edf43e/artifacts/noo38mpw_sofis_valve_operation_logo.jpeg",
}
