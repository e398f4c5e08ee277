package notify

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"charitymatch/internal/domain"
)

// BuildPayload renders the client facing payload of a notification. The keys
// type, title, message and link are always present; event data is merged in
// for deep links.
func BuildPayload(ev domain.Event, userID string) map[string]any {
	p := make(map[string]any, len(ev.Data)+6)
	for k, v := range ev.Data {
		p[k] = v
	}
	p["type"] = string(ev.Type)
	p["event_id"] = ev.ID
	p["subject_kind"] = ev.SubjectKind
	p["subject_id"] = ev.SubjectID
	p["title"] = titleFor(ev.Type)
	p["message"] = messageFor(ev, userID)
	p["link"] = linkFor(ev)
	return p
}

func titleFor(t domain.EventType) string {
	switch t {
	case domain.EventDonationApproved:
		return "Donation approved"
	case domain.EventDonationRejected:
		return "Donation rejected"
	case domain.EventRequestApproved:
		return "Request approved"
	case domain.EventRequestRejected:
		return "Request rejected"
	case domain.EventInterestExpressed:
		return "New interest in your request"
	case domain.EventInterestApproved:
		return "Interest approved"
	case domain.EventInterestRejected:
		return "Interest rejected"
	case domain.EventMatchCreated:
		return "New match"
	case domain.EventMatchExecuted:
		return "Handover recorded"
	case domain.EventMatchCompleted:
		return "Match completed"
	case domain.EventFeedbackResponded:
		return "Response to your feedback"
	}
	return "Notification"
}

func messageFor(ev domain.Event, userID string) string {
	item := itemName(ev)
	donor := ev.Data["donor_id"] == userID
	switch ev.Type {
	case domain.EventDonationApproved:
		return fmt.Sprintf("Your donation of %s was approved and is ready to be matched.", item)
	case domain.EventDonationRejected:
		return withReason(fmt.Sprintf("Your donation of %s was rejected.", item), ev)
	case domain.EventRequestApproved:
		return fmt.Sprintf("Your request for %s was approved and is ready to be matched.", item)
	case domain.EventRequestRejected:
		return withReason(fmt.Sprintf("Your request for %s was rejected.", item), ev)
	case domain.EventInterestExpressed:
		return fmt.Sprintf("A donor offered to fulfil your request for %s.", item)
	case domain.EventInterestApproved:
		if donor {
			return fmt.Sprintf("Your offer to fulfil the request for %s was approved.", item)
		}
		return fmt.Sprintf("A donor's offer for your request for %s was approved.", item)
	case domain.EventInterestRejected:
		return withReason(fmt.Sprintf("Your offer to fulfil the request for %s was not accepted.", item), ev)
	case domain.EventMatchCreated:
		if donor {
			return fmt.Sprintf("Your donation was matched with a request for %s.", item)
		}
		return fmt.Sprintf("Your request for %s was matched with a donor.", item)
	case domain.EventMatchExecuted:
		return fmt.Sprintf("The handover of %s was recorded.", item)
	case domain.EventMatchCompleted:
		return fmt.Sprintf("The match for %s is complete. Tell us how it went.", item)
	case domain.EventFeedbackResponded:
		return "An administrator responded to your feedback."
	}
	return string(ev.Type)
}

func withReason(msg string, ev domain.Event) string {
	if reason, ok := ev.Data["reason"].(string); ok && reason != "" {
		return msg + " Reason: " + reason
	}
	return msg
}

func itemName(ev domain.Event) string {
	name, _ := ev.Data["item_name"].(string)
	if name == "" {
		return "your item"
	}
	return cases.Title(language.English).String(name)
}

func linkFor(ev domain.Event) string {
	switch ev.Type {
	case domain.EventDonationApproved, domain.EventDonationRejected:
		return "/donations/" + ev.SubjectID
	case domain.EventRequestApproved, domain.EventRequestRejected:
		return "/requests/" + ev.SubjectID
	case domain.EventInterestExpressed:
		if reqID, ok := ev.Data["request_id"].(string); ok {
			return "/requests/" + reqID + "/interests"
		}
		return "/interests/" + ev.SubjectID
	case domain.EventInterestApproved, domain.EventInterestRejected:
		return "/interests/" + ev.SubjectID
	case domain.EventMatchCompleted:
		return "/matches/" + ev.SubjectID + "/feedback"
	case domain.EventMatchCreated, domain.EventMatchExecuted:
		return "/matches/" + ev.SubjectID
	case domain.EventFeedbackResponded:
		return "/feedback/" + ev.SubjectID
	}
	return "/notifications"
}
