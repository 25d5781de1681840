package bridge

import (
	"fmt"

	"github.com/bizdesk/realtime/src/types"
)

// envelope carries one delivery between instances, tagged with the
// originating instance ID so a node can skip its own messages.
type envelope struct {
	InstanceID string             `json:"instance_id"`
	Target     targetEnvelope     `json:"target"`
	Payload    types.Notification `json:"payload"`
}

// targetEnvelope is the wire form of a target descriptor.
type targetEnvelope struct {
	Kind     string `json:"kind"`
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	RoomKey  string `json:"room_key,omitempty"`
	Except   string `json:"except,omitempty"`
}

const (
	kindUser      = "user"
	kindTenant    = "tenant"
	kindRoom      = "room"
	kindBroadcast = "broadcast"
)

func encodeTarget(t types.Target) targetEnvelope {
	switch t := t.(type) {
	case types.UserTarget:
		return targetEnvelope{Kind: kindUser, UserID: t.UserID}
	case types.TenantTarget:
		return targetEnvelope{Kind: kindTenant, TenantID: t.TenantID}
	case types.RoomTarget:
		// Except names a session on the originating instance; other
		// nodes carry it along and exclude nothing.
		return targetEnvelope{Kind: kindRoom, RoomKey: t.Key, Except: t.Except}
	case types.BroadcastTarget:
		return targetEnvelope{Kind: kindBroadcast}
	}
	return targetEnvelope{}
}

func (te targetEnvelope) decode() (types.Target, error) {
	switch te.Kind {
	case kindUser:
		return types.UserTarget{UserID: te.UserID}, nil
	case kindTenant:
		return types.TenantTarget{TenantID: te.TenantID}, nil
	case kindRoom:
		return types.RoomTarget{Key: te.RoomKey, Except: te.Except}, nil
	case kindBroadcast:
		return types.BroadcastTarget{}, nil
	}
	return nil, fmt.Errorf("unknown target kind %q", te.Kind)
}
