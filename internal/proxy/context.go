package proxy

// RequestContext is the immutable description of one proxy request. It is
// built by the inbound layer via ContextBuilder, consumed once by the
// orchestrator, and discarded.
type RequestContext struct {
	clientName  string
	method      Method
	path        string
	queryString string
	body        string
}

// ClientName returns the logical client the request targets.
func (c *RequestContext) ClientName() string { return c.clientName }

// Method returns the verb to forward.
func (c *RequestContext) Method() Method { return c.method }

// Path returns the downstream-relative path; may be empty.
func (c *RequestContext) Path() string { return c.path }

// QueryString returns the raw query string without the leading "?".
func (c *RequestContext) QueryString() string { return c.queryString }

// Body returns the request body; empty means no body entity.
func (c *RequestContext) Body() string { return c.body }

// HasBody reports whether a body entity is present.
func (c *RequestContext) HasBody() bool { return c.body != "" }

// ContextBuilder accumulates request fields. Only the client name and method
// are required; empty path, missing query string and empty body are legal.
type ContextBuilder struct {
	clientName  string
	method      Method
	hasMethod   bool
	path        string
	queryString string
	body        string
}

// NewContextBuilder creates an empty builder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// ClientName sets the logical client name.
func (b *ContextBuilder) ClientName(name string) *ContextBuilder {
	b.clientName = name
	return b
}

// Method sets the verb.
func (b *ContextBuilder) Method(m Method) *ContextBuilder {
	b.method = m
	b.hasMethod = true
	return b
}

// Path sets the downstream-relative path.
func (b *ContextBuilder) Path(path string) *ContextBuilder {
	b.path = path
	return b
}

// QueryString sets the raw query string.
func (b *ContextBuilder) QueryString(query string) *ContextBuilder {
	b.queryString = query
	return b
}

// Body sets the request body.
func (b *ContextBuilder) Body(body string) *ContextBuilder {
	b.body = body
	return b
}

// Build validates required fields and produces the immutable context.
func (b *ContextBuilder) Build() (*RequestContext, error) {
	if b.clientName == "" || !b.hasMethod {
		return nil, ErrIncompleteContext
	}

	return &RequestContext{
		clientName:  b.clientName,
		method:      b.method,
		path:        b.path,
		queryString: b.queryString,
		body:        b.body,
	}, nil
}
