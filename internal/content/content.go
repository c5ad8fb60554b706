// Package content holds the static landing page tables served next to the
// demo booking flow.
package content

import "fmt"

type Product struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	LinkText    string `json:"link_text"`
	Icon        Icon   `json:"icon"`
	Tone        Tone   `json:"tone"`
	Style       Style  `json:"style"`
}

type Industry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Page struct {
	Products   []Product  `json:"products"`
	Industries []Industry `json:"industries"`
	FAQ        []FAQ      `json:"faq"`
}

var products = []Product{
	{
		Title:       "Document Management System",
		Description: "Simplify document control and training while ensuring regulatory compliance.",
		Link:        "#", LinkText: "Explore DMS →",
		Icon: IconFileText, Tone: ToneBlue,
	},
	{
		Title:       "Quality Management System",
		Description: "Ensure regulatory compliance, lower quality risks, and enhance audit readiness.",
		Link:        "#", LinkText: "Explore QMS →",
		Icon: IconShieldCheck, Tone: ToneEmerald,
	},
	{
		Title:       "Product Lifecycle Management",
		Description: "Accelerate product development and improve traceability across your product lifecycle.",
		Link:        "#", LinkText: "Explore PLM →",
		Icon: IconGitMerge, Tone: ToneBrand,
	},
	{
		Title:       "Manufacturing Execution System",
		Description: "Gain real-time visibility and optimize the production process with ease.",
		Link:        "#", LinkText: "Explore MES →",
		Icon: IconFactory, Tone: ToneAmber,
	},
	{
		Title:       "Maintenance Management (CMMS)",
		Description: "Reduce downtime and extend asset life with proactive maintenance scheduling.",
		Link:        "#", LinkText: "Explore CMMS →",
		Icon: IconWrench, Tone: TonePurple,
	},
}

var industries = []Industry{
	{"Aerospace & Defence", "Compliance with AS9100D and regulatory standards.", IconPlane},
	{"Automotives", "Streamline production and ensure IATF 16949 compliance.", IconCar},
	{"Contract Research", "Manage complex projects and data with precision.", IconMicroscope},
	{"Cosmetics", "Accelerate time-to-market while ensuring quality.", IconSparkles},
	{"Food Production", "Ensure food safety and FSMA/GFSI compliance.", IconUtensils},
	{"Laboratories", "Manage samples and tests with ISO 17025 compliance.", IconFlaskConical},
	{"Manufacturing", "Optimize operations across diverse manufacturing sectors.", IconFactory},
	{"Medical Devices", "Navigate FDA 21 CFR Part 820 and ISO 13485 regulations.", IconStethoscope},
	{"Nutritional Supplements", "Ensure GMP compliance and product purity.", IconPill},
}

var faq = []FAQ{
	{
		"What is Unifize and how does it work?",
		"Unifize is a unified platform that brings quality, operations, and product development teams into a single source of truth. It helps ISO and FDA-compliant companies manage risk, drive operational efficiency, and accelerate innovation.",
	},
	{
		"How long does implementation take?",
		"Most teams get up and running in less than 30 days. Our no-code configurator and process template libraries enable lightning-fast implementation without complex IT setups.",
	},
	{
		"Is Unifize compliant with FDA and ISO regulations?",
		"Yes. Unifize is built specifically for FDA and ISO-compliant companies. It includes features like CFR Part 11 compliant eSignatures, comprehensive audit trails, and SOC-2 compliant data storage.",
	},
	{
		"Can Unifize integrate with my existing tools?",
		"Absolutely. Unifize integrates with email, SharePoint, Slack, OneDrive, and many other systems. It also provides API access for custom integrations.",
	},
	{
		"What kind of support does Unifize offer?",
		"Unifize provides white-glove onboarding with a dedicated Customer Success team. A Unifize consultant will work with your existing data, flowcharts, and forms to ensure a smooth transition.",
	},
}

// Landing returns a fresh copy of the landing tables with product styles resolved.
func Landing() (Page, error) {
	p := Page{
		Products:   make([]Product, len(products)),
		Industries: append([]Industry(nil), industries...),
		FAQ:        append([]FAQ(nil), faq...),
	}
	for i, prod := range products {
		style, ok := prod.Tone.Style()
		if !ok {
			return Page{}, fmt.Errorf("product %q: %w", prod.Title, ErrUnknownTone)
		}
		prod.Style = style
		p.Products[i] = prod
	}
	return p, nil
}
