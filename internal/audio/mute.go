package audio

import (
	"fmt"

	pulseproto "github.com/jfreymuth/pulse/proto"
)

// SinkMuter toggles mute on the default output sink.
type SinkMuter struct{}

// SetMuted mutes or unmutes the default sink and reports the previous mute state.
func (SinkMuter) SetMuted(muted bool) (bool, error) {
	client, err := connect()
	if err != nil {
		return false, err
	}
	defer client.Close()

	sink, err := client.DefaultSink()
	if err != nil {
		return false, fmt.Errorf("read default sink: %w", err)
	}

	var info pulseproto.GetSinkInfoReply
	if err := client.RawRequest(&pulseproto.GetSinkInfo{SinkIndex: pulseproto.Undefined, SinkName: sink.ID()}, &info); err != nil {
		return false, fmt.Errorf("read sink %q: %w", sink.ID(), err)
	}

	if info.Mute == muted {
		return info.Mute, nil
	}
	if err := client.RawRequest(&pulseproto.SetSinkMute{SinkIndex: info.SinkIndex, Mute: muted}, nil); err != nil {
		return info.Mute, fmt.Errorf("set sink %q mute=%t: %w", sink.ID(), muted, err)
	}
	return info.Mute, nil
}
