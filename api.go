package noteserver

import (
	"net/http"
	"strconv"

	"github.com/fqx-eng/noteserver/common"
	"github.com/fqx-eng/noteserver/schema"
	"github.com/gin-gonic/gin"
)

func (s *Noteserver) runAPI(port string) {
	r := s.engine
	r.Use(common.CORSMiddleware())
	r.Use(common.LimiterMiddleware(600, "M", nil))
	v1 := r.Group("/")
	{
		v1.POST("/structured-product", s.deployNote)
		v1.POST("/structured-product/confirm", s.confirmIssuance)
		v1.POST("/payment-token/mint", s.mintPaymentToken)

		v1.GET("/notes", s.getNotes)
		v1.GET("/note/:mint", s.getNote)
		v1.GET("/schedule/:mint", s.getSchedule)
		v1.GET("/job/:id", s.getJob)
		v1.GET("/jobs/failed", s.getFailedJobs)
		v1.GET("/info", s.getInfo)
	}

	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (s *Noteserver) deployNote(c *gin.Context) {
	req := schema.DeployRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	res, err := s.Deploy(c.Request.Context(), req)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Noteserver) confirmIssuance(c *gin.Context) {
	req := schema.ConfirmIssuanceRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	jobs, err := s.ConfirmIssuance(c.Request.Context(), req)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Noteserver) mintPaymentToken(c *gin.Context) {
	req := struct {
		Owner        string `json:"owner"`
		AmountToMint uint64 `json:"amountToMint"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	txID, err := s.ledger.MintPaymentTokens(c.Request.Context(), req.Owner, req.AmountToMint)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"txId": txID})
}

func (s *Noteserver) getNotes(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorResponse(c, "limit incorrect")
			return
		}
		limit = n
	}
	notes, err := s.wdb.GetNotes(limit)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Noteserver) getNote(c *gin.Context) {
	mint := c.Param("mint")
	note, err := s.wdb.GetNote(mint)
	if err != nil {
		if err == ErrNotExist {
			notFoundResponse(c, "note not found")
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	settlements, err := s.wdb.GetSettlements(mint)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"note":        note,
		"settlements": settlements,
	})
}

// getSchedule re-derives the payment schedule from live ledger state and
// joins it with the queue's view of each payment.
func (s *Noteserver) getSchedule(c *gin.Context) {
	mint := c.Param("mint")
	note, err := s.wdb.GetNote(mint)
	if err != nil {
		if err == ErrNotExist {
			notFoundResponse(c, "note not found")
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	cfg, err := s.ledger.SnapshotConfig(c.Request.Context(), mint)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	beneficiary, err := s.ledger.BeneficiaryAccounts(mint, note.Investor)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	payments, err := DeriveSchedule(mint, cfg, beneficiary)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	jobs, err := s.queue.JobsForMint(mint)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"schedule": payments,
		"jobs":     jobs,
	})
}

func (s *Noteserver) getJob(c *gin.Context) {
	j, err := s.queue.GetJob(c.Param("id"))
	if err != nil {
		if err == ErrJobNotExist {
			notFoundResponse(c, "job not found")
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, j)
}

func (s *Noteserver) getFailedJobs(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorResponse(c, "limit incorrect")
			return
		}
		limit = n
	}
	jobs, err := s.queue.FailedJobs(limit)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (s *Noteserver) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"server":           s.ledger.ServerPublicKey().String(),
		"issuer":           s.ledger.IssuerPublicKey().String(),
		"paymentTokenMint": s.cfg.PaymentTokenMint.String(),
		"assetSymbol":      s.cfg.OracleAssetSymbol,
		"store":            s.store.KVDb.Type(),
	})
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func notFoundResponse(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
