package exchange

import (
	"net/netip"

	"github.com/coapstack/coap-go/pkg/coap"
	"github.com/coapstack/coap-go/pkg/log"
	"github.com/coapstack/coap-go/pkg/transaction"
)

// handleInbound is the connector handler.
func (e *Engine) handleInbound(remote netip.AddrPort, data []byte) {
	p, err := e.codec.Decode(remote, data)
	if err != nil {
		e.logger.Debug("dropping undecodable message", "remote", remote, "size", len(data), "error", err)
		e.logError(remote, "decode", err)
		return
	}
	p.Remote = remote
	e.logPacket(p, log.DirectionIn)

	switch p.Type {
	case coap.Acknowledgement:
		e.handleAck(p)
	case coap.Reset:
		e.handleReset(p)
	case coap.Confirmable, coap.NonConfirmable:
		switch {
		case p.IsEmpty():
			// CoAP ping: a CON empty message is answered with RST.
			if p.Type == coap.Confirmable {
				e.reply(coap.NewReset(p))
			}
		case p.IsRequest():
			e.handleRequest(p)
		case p.IsResponse():
			e.handleResponse(p)
		default:
			e.logger.Debug("dropping message with reserved code", "packet", p)
		}
	}
}

// handleAck completes the transaction with a piggybacked response. An empty
// ACK leaves it active until the separate response arrives.
func (e *Engine) handleAck(p *coap.Packet) {
	id := transaction.ID{Remote: p.Remote, MessageID: p.MessageID}

	if p.IsEmpty() {
		if state, ok := e.manager.State(id); ok {
			e.logger.Debug("awaiting separate response", "remote", p.Remote, "mid", p.MessageID, "state", state)
		}
		return
	}

	if next := e.complete(id, p, nil); next != nil {
		e.dispatch(next)
	}
}

func (e *Engine) handleReset(p *coap.Packet) {
	id := transaction.ID{Remote: p.Remote, MessageID: p.MessageID}
	if next := e.complete(id, nil, ErrReset); next != nil {
		e.dispatch(next)
	}
}

// handleResponse handles a response arriving in its own CON or NON message.
func (e *Engine) handleResponse(p *coap.Packet) {
	if p.Type != coap.Confirmable {
		e.logger.Debug("dropping non-confirmable response", "packet", p)
		return
	}

	tx, ok := e.manager.FindMatchAndRemoveForSeparateResponse(p)
	if !ok {
		e.logger.Debug("rejecting unmatched separate response", "packet", p)
		e.reply(coap.NewReset(p))
		return
	}

	e.reply(coap.NewEmptyAck(p))
	tx.Complete(p, nil)

	// tx is already gone, so this returns the current head of the queue.
	next, ok := e.manager.UnlockOrRemoveAndGetNext(tx.ID())
	if ok {
		e.dispatch(next)
	}
}

func (e *Engine) handleRequest(req *coap.Packet) {
	if e.handler == nil {
		if req.Type == coap.Confirmable {
			e.reply(coap.NewReset(req))
		}
		return
	}

	resp := e.handler(req)
	if resp == nil {
		if req.Type == coap.Confirmable {
			e.reply(coap.NewEmptyAck(req))
		}
		return
	}

	resp.Remote = req.Remote
	resp.Token = req.Token
	if req.Type == coap.Confirmable {
		resp.Type = coap.Acknowledgement
		resp.MessageID = req.MessageID
	} else {
		resp.Type = coap.NonConfirmable
		resp.MessageID = e.nextMessageID()
	}
	e.reply(resp)
}

// reply sends a message that is not tracked as a transaction.
func (e *Engine) reply(p *coap.Packet) {
	if err := e.sendPacket(p); err != nil {
		e.logger.Debug("reply failed", "packet", p, "error", err)
	}
}
