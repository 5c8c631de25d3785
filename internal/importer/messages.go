package importer

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message identifiers shown by the controller.
const (
	MsgSIMReading    = "import.sim.reading"
	MsgSIMImporting  = "import.sim.importing"
	MsgSIMImported   = "import.sim.imported"
	MsgSIMError      = "import.sim.error"
	MsgSDReading     = "import.sd.reading"
	MsgSDImporting   = "import.sd.importing"
	MsgSDImported    = "import.sd.imported"
	MsgSDError       = "import.sd.error"
	MsgVCardReading  = "import.vcard.reading"
	MsgVCardImport   = "import.vcard.importing"
	MsgVCardImported = "import.vcard.imported"
	MsgVCardError    = "import.vcard.error"
	MsgCancelling    = "import.cancelling"
	MsgMerged        = "import.merged"
)

// Message is a localisable message with its arguments.
type Message struct {
	ID   string `json:"id"`
	Args []any  `json:"args,omitempty"`
}

// Renderer turns messages into text.
type Renderer struct {
	printer *message.Printer
}

// NewRenderer creates a renderer for tag. Messages missing for tag fall back
// to English.
func NewRenderer(tag language.Tag) *Renderer {
	return &Renderer{
		printer: message.NewPrinter(tag, message.Catalog(defaultCatalog())),
	}
}

// Render formats m.
func (r *Renderer) Render(m Message) string {
	return r.printer.Sprintf(m.ID, m.Args...)
}

func importedCount(source string) catalog.Message {
	return plural.Selectf(1, "%d",
		"=1", "%d contact imported from "+source,
		"other", "%d contacts imported from "+source,
	)
}

func defaultCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	en := language.English

	set := func(key string, msg ...catalog.Message) {
		// Keys and messages are static; Set only fails on malformed input.
		if err := b.Set(en, key, msg...); err != nil {
			panic(err)
		}
	}
	str := func(key, s string) { set(key, catalog.String(s)) }

	str(MsgSIMReading, "Reading contacts from SIM card…")
	str(MsgSIMImporting, "Importing contacts from SIM card…")
	set(MsgSIMImported, importedCount("SIM card"))
	str(MsgSIMError, "Could not read contacts from the SIM card.")

	str(MsgSDReading, "Reading contacts from memory card…")
	str(MsgSDImporting, "Importing contacts from memory card…")
	set(MsgSDImported, importedCount("memory card"))
	str(MsgSDError, "Could not read contacts from the memory card.")

	str(MsgVCardReading, "Reading vCard…")
	str(MsgVCardImport, "Importing contacts…")
	set(MsgVCardImported, importedCount("vCard"))
	str(MsgVCardError, "Could not read the vCard.")

	str(MsgCancelling, "Cancelling…")
	set(MsgMerged, plural.Selectf(1, "%d",
		"=1", "%d duplicate merged",
		"other", "%d duplicates merged",
	))
	return b
}
