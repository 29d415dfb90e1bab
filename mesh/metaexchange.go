// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package mesh

import "encoding/json"

// MetaAddressRequest is the request half of the two-message
// meta-address exchange. Always carried at TTL 1 (direct peer only).
type MetaAddressRequest struct {
	RequesterPeerID   string `json:"requesterPeerId"`
	RequesterName     string `json:"requesterName,omitempty"`
	PreferHybrid      bool   `json:"preferHybrid"`
}

// MetaAddressResponse is the response half. The responder broadcasts
// this to every connected peer rather than unicasting: the
// mesh.Transport contract already exposes per-peer discovery via
// OnPeerObserved, so the broadcast reveals nothing the transport does
// not. A transport that hides connected-peer presence should unicast
// via SendTo instead.
type MetaAddressResponse struct {
	ResponderPeerID string `json:"responderPeerId"`
	ResponderName   string `json:"responderName,omitempty"`
	MetaAddress     string `json:"metaAddress"`
	IsHybrid        bool   `json:"isHybrid"`
}

// ChooseHybrid implements the responder's selection rule: hybrid iff
// the requester prefers it and the responder owns a post-quantum key.
func ChooseHybrid(req MetaAddressRequest, ownsPQ bool) bool {
	return req.PreferHybrid && ownsPQ
}

// EncodeMetaAddressRequest wraps req in a direct-peer (TTL 1) envelope.
func EncodeMetaAddressRequest(originPeerID string, req MetaAddressRequest) (*Envelope, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return NewEnvelope(MessageTypeMetaAddrRequest, originPeerID, 1, payload)
}

// DecodeMetaAddressRequest parses an envelope payload produced by
// EncodeMetaAddressRequest.
func DecodeMetaAddressRequest(payload []byte) (*MetaAddressRequest, error) {
	var req MetaAddressRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// EncodeMetaAddressResponse wraps resp in a direct-peer (TTL 1) envelope.
func EncodeMetaAddressResponse(originPeerID string, resp MetaAddressResponse) (*Envelope, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return NewEnvelope(MessageTypeMetaAddrResponse, originPeerID, 1, payload)
}

// DecodeMetaAddressResponse parses an envelope payload produced by
// EncodeMetaAddressResponse.
func DecodeMetaAddressResponse(payload []byte) (*MetaAddressResponse, error) {
	var resp MetaAddressResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
