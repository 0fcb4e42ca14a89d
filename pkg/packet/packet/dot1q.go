package packet

import (
	"fmt"

	"github.com/bio-routing/tflow2/convert"
)

const (
	// SizeOfDot1Q is the size of an 802.1q tag (TPID and TCI) in bytes
	SizeOfDot1Q = 4

	sizeOfTCI = 2
)

// ClassOfService is an IEEE 802.1p priority code point
type ClassOfService uint8

// IEEE 802.1p classes of service
const (
	ClassBestEffort          ClassOfService = 0
	ClassBackground          ClassOfService = 1
	ClassExcellentEffort     ClassOfService = 2
	ClassCriticalApplication ClassOfService = 3
	ClassVideo               ClassOfService = 4
	ClassVoice               ClassOfService = 5
	ClassInternetworkControl ClassOfService = 6
	ClassNetworkControl      ClassOfService = 7
)

var classOfServiceNames = [...]string{"BE", "BK", "EE", "CA", "VI", "VO", "IC", "NC"}

func (c ClassOfService) String() string {
	if int(c) < len(classOfServiceNames) {
		return classOfServiceNames[c]
	}

	return fmt.Sprintf("CoS(%d)", uint8(c))
}

// Dot1Q represents an 802.1q tag
type Dot1Q struct {
	Priority     ClassOfService
	DropEligible bool
	ID           uint16
}

// DecodeDot1QTag decodes an 802.1q tag control information field
func DecodeDot1QTag(tci uint16) Dot1Q {
	//  3 bits: priority
	//  1 bit : drop eligible
	// 12 bits: VLAN ID
	return Dot1Q{
		Priority:     ClassOfService(tci >> 13),
		DropEligible: tci&0x1000 != 0,
		ID:           tci & 0x0fff,
	}
}

// DecodeDot1QStack decodes consecutive 802.1q tags from buf, which must start right after
// the MAC addresses. Tags are returned outer first along with the number of bytes they
// occupy. The EtherType following the last tag is left unconsumed.
func DecodeDot1QStack(buf []byte) ([]Dot1Q, int, error) {
	var tags []Dot1Q

	n := 0
	for i := 0; i <= len(buf)/SizeOfDot1Q; i++ {
		et, err := ParseEtherType(buf[n:])
		if err != nil {
			// nothing left to peek, the caller reports the missing EtherType
			break
		}

		if et != EtherTypeVLAN {
			break
		}

		if len(buf[n:]) < SizeOfDot1Q {
			return nil, 0, tooShort("802.1q tag", SizeOfDot1Q, len(buf[n:]))
		}

		tci := convert.Uint16b(buf[n+SizeOfEtherType : n+SizeOfEtherType+sizeOfTCI])
		tags = append(tags, DecodeDot1QTag(tci))
		n += SizeOfDot1Q
	}

	return tags, n, nil
}
