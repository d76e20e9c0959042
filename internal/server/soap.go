package server

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapxmla/internal/rowset"
)

// NamespaceSOAP is the SOAP 1.1 envelope namespace.
const NamespaceSOAP = "http://schemas.xmlsoap.org/soap/envelope/"

// envelope is an incoming SOAP request. Element names are matched without
// regard to namespace prefixes.
type envelope struct {
	XMLName xml.Name   `xml:"Envelope"`
	Header  soapHeader `xml:"Header"`
	Body    soapBody   `xml:"Body"`
}

type soapHeader struct {
	BeginSession *struct{}   `xml:"BeginSession"`
	Session      *sessionRef `xml:"Session"`
	EndSession   *sessionRef `xml:"EndSession"`
}

type sessionRef struct {
	ID string `xml:"SessionId,attr"`
}

type soapBody struct {
	Discover *discoverCall `xml:"Discover"`
	Execute  *executeCall  `xml:"Execute"`
}

type discoverCall struct {
	RequestType  string `xml:"RequestType"`
	Restrictions struct {
		List elementList `xml:"RestrictionList"`
	} `xml:"Restrictions"`
	Properties struct {
		List elementList `xml:"PropertyList"`
	} `xml:"Properties"`
}

type executeCall struct {
	Command struct {
		Cancel *cancelCommand `xml:"Cancel"`
		Other  []listElement  `xml:",any"`
	} `xml:"Command"`
}

type cancelCommand struct {
	SessionID string `xml:"SessionID"`
}

// elementList captures arbitrary children such as the entries of a
// RestrictionList or PropertyList.
type elementList struct {
	Items []listElement `xml:",any"`
}

type listElement struct {
	XMLName xml.Name
	Text    string   `xml:",chardata"`
	Values  []string `xml:"Value"`
}

func decodeEnvelope(r io.Reader) (*envelope, error) {
	var env envelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode SOAP envelope: %w", err)
	}
	return &env, nil
}

// restrictions converts a RestrictionList. A lone scalar element becomes
// rowset.Scalar; <Value> children and repeated elements become a value list.
func (l elementList) restrictions() map[string]rowset.Restriction {
	type acc struct {
		values []string
		list   bool
	}
	byName := make(map[string]*acc)
	for _, it := range l.Items {
		name := it.XMLName.Local
		a, ok := byName[name]
		if !ok {
			a = &acc{}
			byName[name] = a
		} else {
			a.list = true
		}
		if len(it.Values) > 0 {
			a.list = true
			for _, v := range it.Values {
				a.values = append(a.values, strings.TrimSpace(v))
			}
			continue
		}
		a.values = append(a.values, strings.TrimSpace(it.Text))
	}

	out := make(map[string]rowset.Restriction, len(byName))
	for name, a := range byName {
		if a.list {
			out[name] = rowset.Values(a.values...)
		} else {
			out[name] = rowset.Scalar(a.values[0])
		}
	}
	return out
}

// properties converts a PropertyList. A repeated property keeps its last value.
func (l elementList) properties() map[string]string {
	out := make(map[string]string, len(l.Items))
	for _, it := range l.Items {
		out[it.XMLName.Local] = strings.TrimSpace(it.Text)
	}
	return out
}

// commandName names the first unsupported child of an Execute command.
func (e *executeCall) commandName() string {
	if len(e.Command.Other) == 0 {
		return "(empty)"
	}
	return e.Command.Other[0].XMLName.Local
}
