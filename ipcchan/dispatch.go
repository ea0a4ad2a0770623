package ipcchan

// MaxBatch caps how many pending commands one Dispatch call drains,
// matching original_source's fixed 16-slot ipc_buf batch.
const MaxBatch = 16

// Response pairs an outbound message with whichever subscriber should
// receive it.
type Response struct {
	Target Subscription
	Msg    Message
}

// Handler is implemented by the compositor session: it classifies a
// command as fast or slow and processes each, per spec §4.11's "single
// lock hold" requirement for runs of fast commands. HandleSlow is
// expected to do its own brief locking internally for just the
// metadata-mutating part of its work (see original_source's CREATE_WINDOW:
// shm_map happens outside any lock, then a short lock cycle attaches the
// new window).
type Handler interface {
	IsFast(code uint32) bool
	Lock()
	Unlock()
	HandleFast(cmd Message) (Response, bool)
	HandleSlow(cmd Message) (Response, bool)
}

// Dispatch drains up to MaxBatch pending commands for sub and processes
// them through h, batching consecutive fast commands under one Lock/Unlock pair so the
// render thread can never observe a partially-applied burst (e.g. rapid
// CMD_PRESENT calls during scrolling). Responses are returned for the
// caller to emit once Dispatch returns, outside any lock.
func Dispatch(ch *Channel, sub Subscription, h Handler) []Response {
	cmds := ch.PollAll(sub, MaxBatch)
	if len(cmds) == 0 {
		return nil
	}

	var responses []Response
	i := 0
	for i < len(cmds) {
		if !h.IsFast(cmds[i][0]) {
			if resp, ok := h.HandleSlow(cmds[i]); ok {
				responses = append(responses, resp)
			}
			i++
			continue
		}

		h.Lock()
		for i < len(cmds) && h.IsFast(cmds[i][0]) {
			if resp, ok := h.HandleFast(cmds[i]); ok {
				responses = append(responses, resp)
			}
			i++
		}
		h.Unlock()
	}
	return responses
}
