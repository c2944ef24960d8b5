package domain

import "slices"

// FieldKind describes how a briefing field is answered.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldChoice FieldKind = "choice"
	FieldMulti  FieldKind = "multi"
)

// Condition makes a field visible only while another field holds a value.
type Condition struct {
	Key    string `json:"key"`
	Equals string `json:"equals"`
}

// Field describes one entry of the briefing questionnaire together with its
// default value.
type Field struct {
	Key       string     `json:"key"`
	Section   int        `json:"section"`
	Label     string     `json:"label"`
	Kind      FieldKind  `json:"kind"`
	Options   []string   `json:"options,omitempty"`
	Default   FieldValue `json:"default"`
	ShownWhen *Condition `json:"shown_when,omitempty"`

	text func(*BriefingData) *string
	list func(*BriefingData) *[]string
}

func (f Field) value(d *BriefingData) FieldValue {
	if f.Kind == FieldMulti {
		return FieldValue{List: slices.Clone(*f.list(d))}
	}
	return FieldValue{Text: *f.text(d)}
}

func (f Field) assign(d *BriefingData, v FieldValue) {
	if f.Kind == FieldMulti {
		l := slices.Clone(v.List)
		if l == nil {
			l = []string{}
		}
		*f.list(d) = l
		return
	}
	*f.text(d) = v.Text
}

// BriefingSections holds the section titles, indexed by section number - 1.
var BriefingSections = []string{
	"General information",
	"Business and marketing goals (3-6 months)",
	"Target audience",
	"Products and services",
	"Sales process",
	"Channels and ads experience",
	"Metrics and budget",
	"Content and creative",
	"Expectations from the agency",
	"Restrictions and considerations",
}

var (
	yesNo      = []string{"Sí", "No"}
	investedAd = &Condition{Key: "ha_invertido_ads", Equals: "Sí"}
)

func text(section int, key, label string, p func(*BriefingData) *string) Field {
	return Field{Key: key, Section: section, Label: label, Kind: FieldText, text: p}
}

func choice(section int, key, label string, options []string, p func(*BriefingData) *string) Field {
	return Field{Key: key, Section: section, Label: label, Kind: FieldChoice, Options: options, text: p}
}

func multi(section int, key, label string, options []string, p func(*BriefingData) *[]string) Field {
	return Field{Key: key, Section: section, Label: label, Kind: FieldMulti, Options: options, Default: FieldValue{List: []string{}}, list: p}
}

// BriefingFields is the field table of the questionnaire in display order.
var BriefingFields = []Field{
	text(1, "nombre_agencia", "Agency or personal brand name", func(d *BriefingData) *string { return &d.AgencyName }),
	text(1, "nombre_agente", "Main agent name", func(d *BriefingData) *string { return &d.AgentName }),
	text(1, "cargo_agente", "Role", func(d *BriefingData) *string { return &d.AgentRole }),
	text(1, "tipo_agente", "Agent type", func(d *BriefingData) *string { return &d.AgentType }),
	multi(1, "licencias", "Licenses held",
		[]string{"Vida", "Salud", "ACA", "Medicare", "Auto", "Hogar", "Comercial", "IUL", "Annuities"},
		func(d *BriefingData) *[]string { return &d.Licenses }),
	text(1, "estados_venta", "States where sales are licensed", func(d *BriefingData) *string { return &d.SalesStates }),
	text(1, "anos_experiencia", "Years of experience in insurance", func(d *BriefingData) *string { return &d.YearsOfExperience }),
	text(1, "sitio_web_redes", "Website and active social networks", func(d *BriefingData) *string { return &d.WebsiteAndSocial }),

	multi(2, "objetivo_principal", "Main business goal right now",
		[]string{"Generar más clientes", "Reclutar agentes", "Ambos"},
		func(d *BriefingData) *[]string { return &d.MainGoals }),
	multi(2, "tipo_cliente_prioridad", "Priority client type",
		[]string{"Leads nuevos", "Clientes recurrentes", "Cross-selling / Upselling"},
		func(d *BriefingData) *[]string { return &d.PriorityClientType }),
	multi(2, "expectativa_ads", "Expectations from ad campaigns",
		[]string{"Volumen de leads", "Mejor calidad de leads", "Reducir costo por lead (CPL)", "Aumentar citas calificadas", "Escalar ventas"},
		func(d *BriefingData) *[]string { return &d.AdsExpectations }),

	text(3, "edad_ideal", "Age", func(d *BriefingData) *string { return &d.IdealAge }),
	text(3, "idioma_ideal", "Language", func(d *BriefingData) *string { return &d.IdealLanguage }),
	text(3, "ubicacion_ideal", "Location", func(d *BriefingData) *string { return &d.IdealLocation }),
	text(3, "estatus_migratorio", "Migration status", func(d *BriefingData) *string { return &d.MigrationStatus }),
	text(3, "nivel_ingresos", "Approximate income level", func(d *BriefingData) *string { return &d.IncomeLevel }),
	text(3, "tipo_empleo", "Employment type", func(d *BriefingData) *string { return &d.EmploymentType }),
	multi(3, "problema_principal", "Main problem of the ideal client",
		[]string{"Falta de seguro", "Seguro muy costoso", "No entiende sus opciones", "Miedo a ser rechazado"},
		func(d *BriefingData) *[]string { return &d.MainProblems }),
	multi(3, "segmentos", "Segments served or targeted",
		[]string{"Familias", "Migrantes", "Self-employed", "Seniors", "Latinos", "Emprendedores", "Agentes nuevos (si reclutamiento)"},
		func(d *BriefingData) *[]string { return &d.Segments }),

	text(4, "seguros_actuales", "Insurance currently sold", func(d *BriefingData) *string { return &d.CurrentInsurance }),
	text(4, "producto_estrella", "Star product", func(d *BriefingData) *string { return &d.StarProduct }),
	text(4, "propuesta_valor", "Main value proposition", func(d *BriefingData) *string { return &d.ValueProposition }),
	text(4, "diferencial", "Real differentiator", func(d *BriefingData) *string { return &d.Differentiator }),

	multi(5, "proceso_lead", "Process from lead to sale",
		[]string{"Llamada", "WhatsApp", "Zoom", "Presencial"},
		func(d *BriefingData) *[]string { return &d.LeadProcess }),
	text(5, "tiempo_contacto", "Time to contact a new lead", func(d *BriefingData) *string { return &d.ContactTime }),
	text(5, "responsable_seguimiento", "Follow-up owner", func(d *BriefingData) *string { return &d.FollowUpOwner }),
	text(5, "leads_por_venta", "Leads needed per sale", func(d *BriefingData) *string { return &d.LeadsPerSale }),

	multi(6, "canales_anteriores", "Channels used before",
		[]string{"Meta Ads", "Google Ads", "WhatsApp Ads", "Orgánico"},
		func(d *BriefingData) *[]string { return &d.PreviousChannels }),
	choice(6, "ha_invertido_ads", "Has invested in paid ads before", yesNo, func(d *BriefingData) *string { return &d.HasInvestedInAds }),
	conditional(text(6, "que_funciono", "What worked", func(d *BriefingData) *string { return &d.WhatWorked })),
	conditional(text(6, "que_no_funciono", "What did not work", func(d *BriefingData) *string { return &d.WhatDidNotWork })),
	conditional(text(6, "mayor_problema", "Biggest problem", func(d *BriefingData) *string { return &d.BiggestProblem })),

	text(7, "cpl_historico", "Historical average CPL", func(d *BriefingData) *string { return &d.HistoricalCPL }),
	text(7, "costo_por_venta", "Estimated cost per sale", func(d *BriefingData) *string { return &d.CostPerSale }),
	text(7, "valor_promedio_venta", "Average sale value", func(d *BriefingData) *string { return &d.AverageSaleValue }),
	text(7, "clv_aproximado", "Approximate customer lifetime value", func(d *BriefingData) *string { return &d.ApproximateCLV }),
	text(7, "presupuesto_mensual", "Monthly ads budget", func(d *BriefingData) *string { return &d.MonthlyBudget }),
	choice(7, "dispuesto_escalar", "Willing to scale investment",
		[]string{"Sí", "No", "Depende de los resultados"},
		func(d *BriefingData) *string { return &d.WillingToScale }),

	multi(8, "tipo_contenido", "Content that worked best",
		[]string{"Testimonios", "Videos hablando a cámara", "Educativo", "Promocional"},
		func(d *BriefingData) *[]string { return &d.ContentTypes }),
	multi(8, "material_disponible", "Available material",
		[]string{"Videos", "Fotos profesionales", "Logo / branding"},
		func(d *BriefingData) *[]string { return &d.AvailableMaterial }),
	choice(8, "dispuesto_grabar", "Willing to record short videos",
		[]string{"Sí", "No", "Tal vez"},
		func(d *BriefingData) *string { return &d.WillingToRecord }),

	text(9, "expectativa_imperians", "Expectations from the agency", func(d *BriefingData) *string { return &d.AgencyExpectations }),
	multi(9, "campana_exitosa", "What a successful campaign means",
		[]string{"Leads", "Ventas", "Citas", "Retorno de inversión"},
		func(d *BriefingData) *[]string { return &d.SuccessfulCampaign }),
	text(9, "frecuencia_reportes", "Preferred reporting frequency", func(d *BriefingData) *string { return &d.ReportFrequency }),

	text(10, "mensajes_prohibidos", "Messages or promises not to use", func(d *BriefingData) *string { return &d.ForbiddenMessages }),
	text(10, "regulaciones", "Carrier regulations to respect", func(d *BriefingData) *string { return &d.Regulations }),
	text(10, "no_comunicar", "Never communicate in ads", func(d *BriefingData) *string { return &d.DoNotCommunicate }),
}

func conditional(f Field) Field {
	f.ShownWhen = investedAd
	return f
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(BriefingFields))
	for i, f := range BriefingFields {
		m[f.Key] = i
	}
	return m
}()

// FieldByKey looks up a field of the questionnaire.
func FieldByKey(key string) (Field, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return Field{}, false
	}
	return BriefingFields[i], true
}
