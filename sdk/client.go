package sdk

import (
	"errors"
	"fmt"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/body"
)

// NoteCli is the HTTP client of a running noteserver.
type NoteCli struct {
	Cli *gentleman.Client
}

func New(noteserverUrl string) *NoteCli {
	return &NoteCli{
		Cli: gentleman.New().URL(noteserverUrl),
	}
}

// Deploy requests the two offline-signed issuance transactions.
func (n *NoteCli) Deploy(req schema.DeployRequest) (schema.DeployResult, error) {
	r := n.Cli.Post()
	r.Path("/structured-product")
	r.Use(body.JSON(req))
	resp, err := r.Send()
	if err != nil {
		return schema.DeployResult{}, err
	}
	defer resp.Close()
	if !resp.Ok {
		return schema.DeployResult{}, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	res := schema.DeployResult{}
	err = resp.JSON(&res)
	return res, err
}

// ConfirmIssuance reports both issuance transactions as broadcast and returns
// the scheduled settlement jobs.
func (n *NoteCli) ConfirmIssuance(req schema.ConfirmIssuanceRequest) ([]schema.Job, error) {
	r := n.Cli.Post()
	r.Path("/structured-product/confirm")
	r.Use(body.JSON(req))
	resp, err := r.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	jobs := make([]schema.Job, 0)
	err = resp.JSON(&jobs)
	return jobs, err
}

// MintPaymentToken calls the demo faucet and returns the transaction id.
func (n *NoteCli) MintPaymentToken(owner string, amount uint64) (string, error) {
	r := n.Cli.Post()
	r.Path("/payment-token/mint")
	r.Use(body.JSON(map[string]interface{}{
		"owner":        owner,
		"amountToMint": amount,
	}))
	resp, err := r.Send()
	if err != nil {
		return "", err
	}
	defer resp.Close()
	if !resp.Ok {
		return "", errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return gjson.GetBytes(resp.Bytes(), "txId").String(), nil
}

func (n *NoteCli) GetNotes(limit int) ([]schema.NoteRecord, error) {
	r := n.Cli.Get()
	r.Path("/notes")
	r.AddQuery("limit", fmt.Sprintf("%d", limit))
	resp, err := r.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	notes := make([]schema.NoteRecord, 0)
	err = resp.JSON(&notes)
	return notes, err
}

func (n *NoteCli) GetNote(mint string) (schema.NoteRecord, error) {
	r := n.Cli.Get()
	r.AddPath(fmt.Sprintf("/note/%s", mint))
	resp, err := r.Send()
	if err != nil {
		return schema.NoteRecord{}, err
	}
	defer resp.Close()
	if !resp.Ok {
		return schema.NoteRecord{}, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	res := struct {
		Note schema.NoteRecord `json:"note"`
	}{}
	err = resp.JSON(&res)
	return res.Note, err
}

func (n *NoteCli) GetSchedule(mint string) ([]schema.ScheduledPayment, error) {
	r := n.Cli.Get()
	r.AddPath(fmt.Sprintf("/schedule/%s", mint))
	resp, err := r.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	res := struct {
		Schedule []schema.ScheduledPayment `json:"schedule"`
	}{}
	err = resp.JSON(&res)
	return res.Schedule, err
}

func (n *NoteCli) GetJob(id string) (schema.Job, error) {
	r := n.Cli.Get()
	r.AddPath(fmt.Sprintf("/job/%s", id))
	resp, err := r.Send()
	if err != nil {
		return schema.Job{}, err
	}
	defer resp.Close()
	if !resp.Ok {
		return schema.Job{}, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	j := schema.Job{}
	err = resp.JSON(&j)
	return j, err
}

func (n *NoteCli) GetFailedJobs(limit int) ([]schema.Job, error) {
	r := n.Cli.Get()
	r.Path("/jobs/failed")
	r.AddQuery("limit", fmt.Sprintf("%d", limit))
	resp, err := r.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	jobs := make([]schema.Job, 0)
	err = resp.JSON(&jobs)
	return jobs, err
}

// ServerInfo is the /info payload.
func (n *NoteCli) GetInfo() (server, issuer, paymentMint string, err error) {
	r := n.Cli.Get()
	r.Path("/info")
	resp, err := r.Send()
	if err != nil {
		return "", "", "", err
	}
	defer resp.Close()
	if !resp.Ok {
		return "", "", "", errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	raw := resp.Bytes()
	return gjson.GetBytes(raw, "server").String(),
		gjson.GetBytes(raw, "issuer").String(),
		gjson.GetBytes(raw, "paymentTokenMint").String(),
		nil
}
