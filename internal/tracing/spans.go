package tracing

// Span names.
const (
	SpanDump    = "codec.dump"
	SpanLoad    = "codec.load"
	SpanDumpAll = "codec.dump_all"
	SpanLoadAll = "codec.load_all"
)

// Attribute keys.
const (
	AttrType      = "camel.type"
	AttrTag       = "camel.tag"
	AttrVersion   = "camel.version"
	AttrDocuments = "camel.documents"
	AttrBytes     = "camel.bytes"
	AttrLocked    = "camel.locked"
	AttrFailed    = "camel.failed"
)

// Event names.
const (
	EventTagParsed          = "tag.parsed"
	EventVersionMatched     = "version.matched"
	EventConstructorInvoked = "constructor.invoked"
	EventRepresenterInvoked = "representer.invoked"
)
