package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/meshchain/meshnode/internal/types"
)

type keyfileResponse struct {
	Address   string `json:"address"`
	Mnemonic  string `json:"mnemonic"`
	PublicKey string `json:"public_key"`
}

// handleWalletIssue implements POST /wallet: mint a new keyfile through
// the wallet keystore and return it to the (already authenticated)
// caller. The guard in front of this handler is what makes returning a
// mnemonic over HTTP acceptable at all.
func handleWalletIssue(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	addr, mnemonic, pubKey, err := d.Wallet.NewKeyfile()
	if err != nil {
		d.Logger.Error("keyfile generation failed", "err", err)
		return NewReply(http.StatusInternalServerError, "Keyfile generation failed.")
	}
	resp := keyfileResponse{
		Address:   encode32(addr),
		Mnemonic:  mnemonic,
		PublicKey: b64.EncodeToString(pubKey),
	}
	body, _ := json.Marshal(resp)
	return JSONReply(http.StatusOK, body)
}

// decodeUnsignedTX parses the unsigned wire form: the same shape as a
// posted tx but with no id and no signature yet.
func decodeUnsignedTX(body []byte) (*types.TX, error) {
	var in txJSON
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, err
	}
	tx := &types.TX{}
	var err error
	if in.Owner != "" {
		if tx.Owner, err = b64.DecodeString(in.Owner); err != nil {
			return nil, err
		}
	}
	if in.Target != "" {
		if tx.Target, err = b64.DecodeString(in.Target); err != nil {
			return nil, err
		}
	}
	if in.Data != "" {
		if tx.Data, err = b64.DecodeString(in.Data); err != nil {
			return nil, err
		}
	}
	if in.LastTx != "" {
		if tx.LastTx, err = decode32(in.LastTx, "last_tx"); err != nil {
			return nil, err
		}
	}
	if tx.Quantity, err = parseUint256(in.Quantity); err != nil {
		return nil, err
	}
	if tx.Reward, err = parseUint256(in.Reward); err != nil {
		return nil, err
	}
	for _, t := range in.Tags {
		name, err := b64.DecodeString(t.Name)
		if err != nil {
			return nil, err
		}
		value, err := b64.DecodeString(t.Value)
		if err != nil {
			return nil, err
		}
		tx.Tags = append(tx.Tags, types.Tag{Name: name, Value: value})
	}
	return tx, nil
}

// handleUnsignedTx implements POST /unsigned_tx: sign the posted tx with
// the node's own key, derive its id, and push it through the same
// admission pipeline an externally signed tx would take.
func handleUnsignedTx(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	body, err := env.ReadBody(d.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	tx, err := decodeUnsignedTX(body)
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid transaction.")
	}
	if err := d.Wallet.Sign(tx, tx.Owner); err != nil {
		d.Logger.Error("tx signing failed", "err", err)
		return NewReply(http.StatusInternalServerError, "Signing failed.")
	}
	tx.ID = types.ComputeID(tx.SignedFields())

	reply := admitSignedTx(ctx, env, tx)
	if reply.Status != http.StatusOK {
		return reply
	}
	out, _ := json.Marshal(map[string]string{"id": encode32(tx.ID)})
	return JSONReply(http.StatusOK, out)
}
