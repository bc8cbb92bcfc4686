package filter

// payloadShape identifies which parser a catalog entry's payload is routed
// through.
type payloadShape int

const (
	shapeNone payloadShape = iota
	shapeOneArg
	shapeConnect
	shapeLinkConnect
	shapeLinkAuth
	shapeTxBegin
	shapeTxMailRcpt
	shapeTxEnvelope
	shapeTxData
	shapeTxCommit
	shapeTxRollback
	shapeIdentifier
	shapeLinkTLS
)

type catalogKey struct {
	typ      EventType
	phase    Phase
	incoming bool
}

type catalogEntry struct {
	shape payloadShape
}

// catalog is the static, read-only table of every (type, phase, incoming)
// triple the wire protocol allows, each tagged with the shape of its
// payload. Triples absent from this table are protocol errors.
var catalog = map[catalogKey]catalogEntry{
	{Filter, PhaseConnect, true}:  {shapeConnect},
	{Filter, PhaseHelo, true}:     {shapeIdentifier},
	{Filter, PhaseEhlo, true}:     {shapeIdentifier},
	{Filter, PhaseStartTLS, true}: {shapeNone},
	{Filter, PhaseAuth, true}:     {shapeOneArg},
	{Filter, PhaseMailFrom, true}: {shapeOneArg},
	{Filter, PhaseRcptTo, true}:   {shapeOneArg},
	{Filter, PhaseData, true}:     {shapeNone},
	{Filter, PhaseDataLine, true}: {shapeOneArg},
	{Filter, PhaseRset, true}:     {shapeNone},
	{Filter, PhaseQuit, true}:     {shapeNone},
	{Filter, PhaseNoop, true}:     {shapeNone},
	{Filter, PhaseHelp, true}:     {shapeNone},
	{Filter, PhaseWiz, true}:      {shapeNone},
	{Filter, PhaseCommit, true}:   {shapeNone},

	{Report, PhaseLinkAuth, true}: {shapeLinkAuth},

	{Report, PhaseLinkConnect, true}:  {shapeLinkConnect},
	{Report, PhaseLinkConnect, false}: {shapeLinkConnect},

	{Report, PhaseLinkDisconnect, true}:  {shapeNone},
	{Report, PhaseLinkDisconnect, false}: {shapeNone},

	{Report, PhaseLinkGreeting, true}:  {shapeIdentifier},
	{Report, PhaseLinkGreeting, false}: {shapeIdentifier},

	{Report, PhaseLinkIdentify, true}:  {shapeIdentifier},
	{Report, PhaseLinkIdentify, false}: {shapeIdentifier},

	{Report, PhaseLinkTLS, true}:  {shapeLinkTLS},
	{Report, PhaseLinkTLS, false}: {shapeLinkTLS},

	{Report, PhaseTxBegin, true}:  {shapeTxBegin},
	{Report, PhaseTxBegin, false}: {shapeTxBegin},

	{Report, PhaseTxMail, true}:  {shapeTxMailRcpt},
	{Report, PhaseTxMail, false}: {shapeTxMailRcpt},

	{Report, PhaseTxRcpt, true}:  {shapeTxMailRcpt},
	{Report, PhaseTxRcpt, false}: {shapeTxMailRcpt},

	{Report, PhaseTxEnvelope, true}:  {shapeTxEnvelope},
	{Report, PhaseTxEnvelope, false}: {shapeTxEnvelope},

	{Report, PhaseTxData, true}:  {shapeTxData},
	{Report, PhaseTxData, false}: {shapeTxData},

	{Report, PhaseTxCommit, true}:  {shapeTxCommit},
	{Report, PhaseTxCommit, false}: {shapeTxCommit},

	{Report, PhaseTxRollback, true}:  {shapeTxRollback},
	{Report, PhaseTxRollback, false}: {shapeTxRollback},

	{Report, PhaseProtocolClient, true}:  {shapeOneArg},
	{Report, PhaseProtocolClient, false}: {shapeOneArg},

	{Report, PhaseProtocolServer, true}:  {shapeOneArg},
	{Report, PhaseProtocolServer, false}: {shapeOneArg},

	{Report, PhaseFilterResponse, true}:  {shapeOneArg},
	{Report, PhaseFilterResponse, false}: {shapeOneArg},

	{Report, PhaseTimeout, true}:  {shapeNone},
	{Report, PhaseTimeout, false}: {shapeNone},
}

// lookupCatalog returns the catalog entry for a triple, or false if the
// triple is not a legal combination on the wire.
func lookupCatalog(typ EventType, phase Phase, incoming bool) (catalogEntry, bool) {
	e, ok := catalog[catalogKey{typ, phase, incoming}]
	return e, ok
}
