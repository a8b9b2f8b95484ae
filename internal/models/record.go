package models

// Sheet names used by the default campaign.
const (
	SheetCalls  = "Llamadas"
	SheetChats  = "Chats"
	SheetVisits = "Citas"
)

// Column names shared by call and chat records.
const (
	ColCreated    = "Creado"
	ColDuration   = "Duración"
	ColTranscript = "Transcripción"
	ColSummary    = "Resumen"
	ColID         = "ID"
)

// Column names of visit records.
const (
	ColName           = "Nombre"
	ColPurpose        = "Motivo"
	ColDate           = "Fecha"
	ColTime           = "Hora"
	ColConversationID = "ID Conversación"
	ColChannel        = "Canal"
)

// CallHeaders is the exact column order of the calls sheet.
var CallHeaders = []string{
	ColCreated,
	"Empiezo Llamada",
	"Termino Llamada",
	ColDuration,
	ColTranscript,
	ColSummary,
	ColID,
}

// ChatHeaders is the exact column order of the chats sheet.
var ChatHeaders = []string{
	ColCreated,
	"Empiezo Chat",
	"Termino Chat",
	ColDuration,
	ColTranscript,
	ColSummary,
	ColID,
}

// VisitHeaders is the exact column order of the visits sheet.
var VisitHeaders = []string{
	ColCreated,
	ColName,
	ColPurpose,
	ColDate,
	ColTime,
	ColConversationID,
	ColChannel,
}

// Row is a single record keyed by column name.
type Row map[string]any

// Record is a row bound to the sheet and header order it must be written with.
type Record struct {
	Sheet   string
	Headers []string
	Row     Row
}

// Missing returns the headers that have no key in the row.
func (r Record) Missing() []string {
	var missing []string
	for _, h := range r.Headers {
		if _, ok := r.Row[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}
