// Package bxml renders call-control documents returned to the Voice API.
package bxml

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/dkeye/voicebridge/internal/domain"
)

const ContentType = "application/xml"

// Response is the root of every document. Verbs run in order.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type Transfer struct {
	XMLName          xml.Name `xml:"Transfer"`
	TransferCallerID string   `xml:"transferCallerId,attr,omitempty"`
	SipURIs          []SipURI
}

type SipURI struct {
	XMLName xml.Name `xml:"SipUri"`
	UUI     string   `xml:"uui,attr,omitempty"`
	URI     string   `xml:",chardata"`
}

type SpeakSentence struct {
	XMLName xml.Name `xml:"SpeakSentence"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// TransferToConference moves the call into conf over SIP. The conference
// name is the user part of the target URI; the participant token travels in
// the User-to-User header.
func TransferToConference(sipURI string, conf domain.ConferenceID, p *domain.Participant) Response {
	return Response{Verbs: []any{
		Transfer{
			TransferCallerID: string(p.ID),
			SipURIs: []SipURI{{
				UUI: p.Token + ";encoding=jwt",
				URI: ConferenceURI(sipURI, conf),
			}},
		},
	}}
}

// ConferenceURI addresses conf at the SIP endpoint of sipURI, replacing any
// user part: sip:host:5060 becomes sip:<conf>@host:5060.
func ConferenceURI(sipURI string, conf domain.ConferenceID) string {
	scheme, rest, ok := strings.Cut(sipURI, ":")
	if !ok {
		return sipURI
	}
	if _, host, found := strings.Cut(rest, "@"); found {
		rest = host
	}
	return scheme + ":" + string(conf) + "@" + rest
}

// Reject tells the caller why and hangs up.
func Reject(message string) Response {
	return Response{Verbs: []any{
		SpeakSentence{Voice: "susan", Text: message},
		Hangup{},
	}}
}

func HangupOnly() Response {
	return Response{Verbs: []any{Hangup{}}}
}

// Render serializes r with the XML declaration.
func Render(r Response) ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal bxml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
