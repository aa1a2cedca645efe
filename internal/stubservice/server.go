// Package stubservice is a local development stand-in for the external
// processing service. It serves the same five endpoints with simplified
// semantics: sheet listing and row reading are real (excelize), while
// extraction and matching are trivial. The production engines remain
// external and out of scope.
package stubservice

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"spot-monitor/internal/common/logger"
	"spot-monitor/internal/gateway"
)

// excludedSheet never appears in sheet listings, matching the original
// service's behavior.
const excludedSheet = "Final KPIs"

type Server struct {
	store        *artifactStore
	logger       logger.Logger
	previewLimit int
}

type ServerOptions struct {
	Logger       logger.Logger
	PreviewLimit int
}

func NewServer(opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	limit := opts.PreviewLimit
	if limit <= 0 {
		limit = 200
	}
	return &Server{
		store:        newArtifactStore(),
		logger:       log,
		previewLimit: limit,
	}
}

// Router builds the gin engine with the service's routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.POST("/api/schedule/sheets", s.handleSheets)
	r.POST("/api/extract", s.handleExtract)
	r.GET("/api/extract/download/:token", s.handleExtractDownload)
	r.POST("/api/monitor", s.handleMonitor)
	r.GET("/api/monitor/download/:jobId/:which", s.handleMonitorDownload)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleSheets(c *gin.Context) {
	f, err := openWorkbook(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		if name != excludedSheet {
			sheets = append(sheets, name)
		}
	}

	c.JSON(http.StatusOK, gin.H{"sheets": sheets})
}

func (s *Server) handleExtract(c *gin.Context) {
	sheet := c.PostForm("sheet")
	channel := c.PostForm("channel")
	advertiser := c.PostForm("advertiser")

	f, err := openWorkbook(c, "file")
	if err != nil || sheet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file and sheet are required"})
		return
	}
	defer f.Close()

	table, err := tableFromSheet(f, sheet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Stamp the selection onto every spot so downstream artifacts carry it.
	table.Columns = append(table.Columns, "Channel", "Advertiser")
	for _, row := range table.Rows {
		row["Channel"] = channel
		row["Advertiser"] = advertiser
	}

	token := s.store.putExtract(&extractArtifact{
		Table:      table,
		Sheet:      sheet,
		Channel:    channel,
		Advertiser: advertiser,
	})

	s.logger.Info("Extraction stored", map[string]interface{}{
		"token": token,
		"sheet": sheet,
		"rows":  len(table.Rows),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"preview": table.Preview(s.previewLimit),
	})
}

func (s *Server) handleExtractDownload(c *gin.Context) {
	item, ok := s.store.getExtract(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired token"})
		return
	}

	data, err := item.Table.Excel("Extracted Row Data")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="extracted_schedule.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (s *Server) handleMonitor(c *gin.Context) {
	token := c.PostForm("token")
	roNumber := c.PostForm("ro_number")

	nilsonFile, err := openWorkbook(c, "nilson")
	if token == "" || roNumber == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token, ro_number, nilson file are required"})
		return
	}
	defer nilsonFile.Close()

	item, ok := s.store.getExtract(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired token"})
		return
	}

	nilson, err := tableFromSheet(nilsonFile, nilsonFile.GetSheetList()[0])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	unmatched, stamped, matched := reconcile(item.Table, nilson, roNumber)

	summary := &gateway.MonitoringSummary{
		TotalScheduleSpots:   len(item.Table.Rows),
		TotalUnmatched:       len(unmatched.Rows),
		TotalMatchedInNilson: matched,
	}

	jobID := s.store.putResult(&monitorArtifact{
		Unmatched: unmatched,
		Nilson:    stamped,
		Summary:   summary,
	})

	s.logger.Info("Monitoring run stored", map[string]interface{}{
		"jobId":     jobID,
		"unmatched": summary.TotalUnmatched,
		"matched":   summary.TotalMatchedInNilson,
	})

	c.JSON(http.StatusOK, gin.H{
		"job_id":           jobID,
		"summary":          summary,
		"unmatchedPreview": unmatched.Preview(s.previewLimit),
		"nilsonPreview":    stamped.Preview(s.previewLimit),
	})
}

func (s *Server) handleMonitorDownload(c *gin.Context) {
	item, ok := s.store.getResult(c.Param("jobId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired job"})
		return
	}

	var table *Table
	var name string
	switch c.Param("which") {
	case "unmatched":
		table = item.Unmatched
		name = "unmatched_data.csv"
	case "nilson":
		table = item.Nilson
		name = "nilson.csv"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "which must be unmatched or nilson"})
		return
	}

	data, err := table.CSV()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv", data)
}

// openWorkbook reads the named multipart file into excelize.
func openWorkbook(c *gin.Context, field string) (*excelize.File, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return readWorkbook(header)
}

func readWorkbook(header *multipart.FileHeader) (*excelize.File, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return excelize.OpenReader(bytes.NewReader(data))
}
