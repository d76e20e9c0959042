package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapxmla/internal/rowset"
	"github.com/leapstack-labs/leapxmla/pkg/xmlwriter"
)

// maxRequestBytes bounds the size of a SOAP request.
const maxRequestBytes = 4 << 20

const (
	cookieSessionKey = "xmla_session"
	namespaceEmpty   = "urn:schemas-microsoft-com:xml-analysis:empty"
)

// sessionScope is the XMLA session a request runs in.
type sessionScope struct {
	id string

	// echo is set when the client manages the session through SOAP headers
	// and expects it back in the response header.
	echo  bool
	ended bool
}

// handleXMLA serves one SOAP request.
func (s *Server) handleXMLA(w http.ResponseWriter, r *http.Request) {
	env, err := decodeEnvelope(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeFault(w, r, rowset.ClientFault(rowset.CodeBadRequest, "Malformed SOAP request"), err)
		return
	}

	scope, err := s.resolveSession(w, r, env.Header)
	if err != nil {
		s.writeFault(w, r, rowset.ServerFault(rowset.CodeUnknown, err, "Failed to establish session"), err)
		return
	}
	if user, pass, ok := r.BasicAuth(); ok {
		s.sessions.SetCredentials(scope.id, user, pass)
	}
	if scope.ended {
		defer s.sessions.EndSession(scope.id)
	}

	switch {
	case env.Body.Discover != nil:
		s.discover(w, r, scope, env.Body.Discover)
	case env.Body.Execute != nil:
		s.execute(w, r, scope, env.Body.Execute)
	case scope.echo || scope.ended:
		// A bare BeginSession or EndSession needs no body.
		rw := newResponseWriter(w)
		x := startEnvelope(rw, scope)
		x.Element("soap:Body")
		s.finish(rw, r, x)
	default:
		s.writeFault(w, r, rowset.ClientFault(rowset.CodeBadRequest, "SOAP body has no Discover or Execute"), nil)
	}
}

// resolveSession picks the session from the SOAP header, falling back to a
// cookie-pinned id for clients that send no session header.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request, h soapHeader) (sessionScope, error) {
	switch {
	case h.BeginSession != nil:
		id := uuid.NewString()
		s.logger.Debug("session begun", "session", id)
		return sessionScope{id: id, echo: true}, nil
	case h.Session != nil && h.Session.ID != "":
		return sessionScope{id: h.Session.ID, echo: true}, nil
	case h.EndSession != nil && h.EndSession.ID != "":
		return sessionScope{id: h.EndSession.ID, ended: true}, nil
	}

	sess, err := s.cookies.Get(r, s.cookieName)
	if err != nil {
		// A cookie signed with another secret is replaced.
		s.logger.Debug("discarding unreadable session cookie", "error", err)
	}
	if id, ok := sess.Values[cookieSessionKey].(string); ok && id != "" {
		return sessionScope{id: id}, nil
	}
	id := uuid.NewString()
	sess.Values[cookieSessionKey] = id
	if err := sess.Save(r, w); err != nil {
		return sessionScope{}, err
	}
	return sessionScope{id: id}, nil
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request, scope sessionScope, call *discoverCall) {
	user, pass, _ := s.sessions.Credentials(scope.id)
	res, err := s.engine.Prepare(r.Context(), rowset.Request{
		RowsetName:   call.RequestType,
		Restrictions: call.Restrictions.List.restrictions(),
		Properties:   call.Properties.List.properties(),
		SessionID:    scope.id,
		Username:     user,
		Password:     pass,
	})
	if err != nil {
		s.writeFault(w, r, rowset.AsFault(err), err)
		return
	}
	defer func() { _ = res.Close() }()

	rw := newResponseWriter(w)
	x := startEnvelope(rw, scope)
	x.StartElement("soap:Body")
	x.StartElement("DiscoverResponse", xmlwriter.A("xmlns", rowset.NamespaceXMLA))
	x.StartElement("return")
	if err := res.Emit(x); err != nil {
		// Rows may already be on the wire; close what is open and report
		// the fault inside the body.
		f := rowset.AsFault(err)
		s.logFault(r, f, err)
		faultsTotal.WithLabelValues(f.Code).Inc()
		rw.status = http.StatusInternalServerError
		x.CompleteBeforeElement("DiscoverResponse")
		writeFaultElement(x, f)
	} else {
		x.EndElement()
		x.EndElement()
	}
	x.EndElement()
	s.finish(rw, r, x)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, scope sessionScope, call *executeCall) {
	if call.Command.Cancel == nil {
		s.writeFault(w, r, rowset.ClientFault(rowset.CodeUnsupportedCommand,
			"Command '%s' is not supported", call.commandName()), nil)
		return
	}

	target := call.Command.Cancel.SessionID
	if target == "" {
		target = scope.id
	}
	s.sessions.CancelSession(target)

	rw := newResponseWriter(w)
	x := startEnvelope(rw, scope)
	x.StartElement("soap:Body")
	x.StartElement("ExecuteResponse", xmlwriter.A("xmlns", rowset.NamespaceXMLA))
	x.StartElement("return")
	x.Element("root", xmlwriter.A("xmlns", namespaceEmpty))
	x.EndElement()
	x.EndElement()
	x.EndElement()
	s.finish(rw, r, x)
}

// startEnvelope opens the response envelope and writes its header. The
// caller closes soap:Envelope.
func startEnvelope(rw *responseWriter, scope sessionScope) *xmlwriter.Writer {
	x := xmlwriter.New(rw)
	x.StartDocument()
	x.StartElement("soap:Envelope", xmlwriter.A("xmlns:soap", NamespaceSOAP))
	x.StartElement("soap:Header")
	if scope.echo && !scope.ended {
		x.Element("Session",
			xmlwriter.A("xmlns", rowset.NamespaceXMLA),
			xmlwriter.A("SessionId", scope.id))
	}
	x.EndElement()
	return x
}

// finish closes the envelope and flushes it.
func (s *Server) finish(rw *responseWriter, r *http.Request, x *xmlwriter.Writer) {
	x.EndElement()
	if err := x.EndDocument(); err != nil {
		s.logger.Warn("failed to write response", "error", err, "request_id", requestID(r))
	}
	rw.commit()
}

// writeFault renders f as a complete SOAP fault response.
func (s *Server) writeFault(w http.ResponseWriter, r *http.Request, f *rowset.Fault, cause error) {
	s.logFault(r, f, cause)
	faultsTotal.WithLabelValues(f.Code).Inc()

	rw := newResponseWriter(w)
	rw.status = http.StatusInternalServerError
	x := xmlwriter.New(rw)
	x.StartDocument()
	x.StartElement("soap:Envelope", xmlwriter.A("xmlns:soap", NamespaceSOAP))
	x.StartElement("soap:Body")
	writeFaultElement(x, f)
	x.EndElement()
	x.EndElement()
	if err := x.EndDocument(); err != nil {
		s.logger.Warn("failed to write fault", "error", err, "request_id", requestID(r))
	}
	rw.commit()
}

func writeFaultElement(x *xmlwriter.Writer, f *rowset.Fault) {
	x.StartElement("soap:Fault")
	x.TextElement("faultcode", "soap:"+f.FaultCode)
	x.TextElement("faultstring", f.Message)
	x.StartElement("detail")
	x.Element("Error",
		xmlwriter.A("xmlns", rowset.NamespaceXMLA),
		xmlwriter.A("ErrorCode", f.Code),
		xmlwriter.A("Description", f.Message),
		xmlwriter.A("Source", "leapxmla"))
	x.EndElement()
	x.EndElement()
}

func (s *Server) logFault(r *http.Request, f *rowset.Fault, cause error) {
	attrs := []any{"code", f.Code, "message", f.Message, "request_id", requestID(r)}
	if cause != nil && !errors.Is(cause, f) {
		attrs = append(attrs, "error", cause)
	} else if f.Err != nil {
		attrs = append(attrs, "error", f.Err)
	}
	s.logger.Warn("xmla fault", attrs...)
}

// responseWriter defers the status line until the first byte is written so
// a fault raised before any output can still change it.
type responseWriter struct {
	w       http.ResponseWriter
	status  int
	written bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	return &responseWriter{w: w, status: http.StatusOK}
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.commit()
	return rw.w.Write(p)
}

func (rw *responseWriter) commit() {
	if !rw.written {
		rw.written = true
		rw.w.WriteHeader(rw.status)
	}
}
