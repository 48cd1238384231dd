package services

import (
	"fmt"

	"github.com/ishan19r/apt-hunt/config"
)

// InquiryMessage builds the initial contact message for a listing. The
// greeting names the broker when one is known.
func InquiryMessage(address, brokerName string, p config.Profile) string {
	greeting := "Hi,"
	if brokerName != "" {
		greeting = fmt.Sprintf("Hi %s,", brokerName)
	}

	return fmt.Sprintf(`%s

I'm interested in the 1-bedroom at %s. A few questions:

1. Is the unit still available for immediate move-in?
2. Are there any additional fees beyond rent (amenity fees, move-in fees, etc.)?
3. What are the income/credit requirements for approval?
4. Is there any flexibility on the lease terms?

I'd love to schedule a viewing at your earliest convenience. I'm available %s.

Thanks!
%s`, greeting, address, availabilityLine(p), p.Name)
}

// ScheduleResponse builds a reply to a viewing proposal. method is
// "facetime" for a remote tour, anything else for in person.
func ScheduleResponse(broker, method string, p config.Profile) string {
	if method == "facetime" {
		return fmt.Sprintf(`Hi %s,

Thanks for getting back to me! I can't make weekday mornings since I'm working — would you be open to a quick FaceTime tour instead?

Thanks!
%s`, broker, p.Name)
	}

	return fmt.Sprintf(`Hi %s,

I'd love to see the unit. Available tomorrow after 5:30pm or this weekend anytime.

Thanks!
%s`, broker, p.Name)
}

// NegotiationMessage builds a counter-offer at the target rent.
func NegotiationMessage(broker string, targetRent int, p config.Profile) string {
	return fmt.Sprintf(`Hi %s,

Thanks for showing me the apartment! I'm very interested. Would you be open to $%s/month? I'm ready to sign quickly.

Thanks!
%s`, broker, formatThousands(targetRent), p.Name)
}

func availabilityLine(p config.Profile) string {
	if p.Availability != "" {
		return p.Availability
	}
	return "weekdays after 5:30pm or weekends anytime"
}

// formatThousands renders 2600 as "2,600".
func formatThousands(n int) string {
	if n < 0 {
		return "-" + formatThousands(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", formatThousands(n/1000), n%1000)
}
