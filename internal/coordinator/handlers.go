package coordinator

import (
	"context"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/hpungsan/skim/internal/errors"
	"github.com/hpungsan/skim/internal/ops"
)

// credentialSnapshot answers the credential guard with the value read on the
// loop goroutine when the request arrived.
type credentialSnapshot bool

func (s credentialSnapshot) HasCredential(context.Context) bool { return bool(s) }

func (c *Coordinator) handleReady(ctx context.Context) {
	cfg := c.store.Get(ctx)
	c.send(Outbound{Channel: ChannelCredentialStatus, ID: NewID(), Payload: CredentialStatus{Present: cfg.CredentialPresent}})
	c.send(Outbound{Channel: ChannelFolderPath, ID: NewID(), Payload: FolderPath{Path: cfg.OutputFolderPath}})
	c.send(Outbound{Channel: ChannelWindowSize, ID: NewID(), Payload: WindowSize{Width: cfg.WindowWidth, Height: cfg.WindowHeight}})
}

func (c *Coordinator) handleSaveCredential(ctx context.Context, log *slog.Logger, msg Inbound) {
	var p saveCredentialPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		log.Warn("invalid payload", "error", err)
	} else if err := c.store.SetCredential(ctx, p.Secret); err != nil {
		log.Error("failed to save credential", "error", err)
	}

	c.send(Outbound{
		Channel: ChannelCredentialStatus,
		ID:      msg.ID,
		Payload: CredentialStatus{Present: c.store.HasCredential(ctx)},
	})
}

// handleSaveFolderPath persists the path only when it is writable. The reply
// always carries the effective folder, old or new.
func (c *Coordinator) handleSaveFolderPath(ctx context.Context, log *slog.Logger, msg Inbound) {
	var p pathPayload
	switch err := decodePayload(msg.Payload, &p); {
	case err != nil:
		log.Warn("invalid payload", "error", err)
	case !ops.IsWritable(p.Path):
		log.Info("folder rejected", "error", errors.NewPathNotWritable(p.Path))
	default:
		if err := c.store.SetOutputFolderPath(ctx, p.Path); err != nil {
			log.Error("failed to save folder path", "error", err)
		}
	}

	c.send(Outbound{
		Channel: ChannelFolderPath,
		ID:      msg.ID,
		Payload: FolderPath{Path: c.store.Get(ctx).OutputFolderPath},
	})
}

func (c *Coordinator) handleRequestSummary(ctx context.Context, log *slog.Logger, msg Inbound) {
	var input ops.SummaryInput
	if err := decodePayload(msg.Payload, &input); err != nil {
		log.Warn("invalid payload", "error", err)
		c.send(Outbound{Channel: ChannelSummaryResult, ID: msg.ID,
			Payload: encodeSummary(fn.Err[ops.SummaryOutput](errors.NewInvalidRequest("invalid summary request")))})
		return
	}

	if !c.summaryFlight.TryAcquire(1) {
		log.Info("summary already in flight")
		c.send(Outbound{Channel: ChannelSummaryResult, ID: msg.ID,
			Payload: encodeSummary(fn.Err[ops.SummaryOutput](errors.NewBusy(ChannelRequestSummary)))})
		return
	}

	creds := credentialSnapshot(c.store.HasCredential(ctx))
	c.spawn(func() {
		res := c.summarize(ctx, log, creds, input)
		c.summaryFlight.Release(1)
		c.post(ChannelSummaryResult, msg.ID, encodeSummary(res))
	})
}

func (c *Coordinator) summarize(ctx context.Context, log *slog.Logger, creds ops.CredentialChecker, input ops.SummaryInput) fn.Result[ops.SummaryOutput] {
	out, err := ops.RequestSummary(ctx, creds, c.summarizer, input)
	if err != nil {
		sErr := errors.As(err)
		log.Warn("summary failed", "code", sErr.Code, "url", input.URL, "cause", sErr.Unwrap())
		return fn.Err[ops.SummaryOutput](err)
	}
	log.Info("summary ready", "url", input.URL, "file_name", out.FileName)
	return fn.Ok(*out)
}

// encodeSummary encodes a failure as its message with an empty file name.
func encodeSummary(res fn.Result[ops.SummaryOutput]) SummaryResult {
	out, err := res.Unpack()
	if err != nil {
		return SummaryResult{FileName: "", Text: errors.As(err).Message}
	}
	return SummaryResult{FileName: out.FileName, Text: out.Text}
}

func (c *Coordinator) handleExport(ctx context.Context, log *slog.Logger, msg Inbound) {
	var p exportRequestPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		log.Warn("invalid payload", "error", err)
		c.send(Outbound{Channel: ChannelExportResult, ID: msg.ID,
			Payload: encodeExport(fn.Err[ops.ExportOutput](errors.NewInvalidRequest("invalid export request")))})
		return
	}

	if !c.exportFlight.TryAcquire(1) {
		log.Info("export already in flight")
		c.send(Outbound{Channel: ChannelExportResult, ID: msg.ID,
			Payload: encodeExport(fn.Err[ops.ExportOutput](errors.NewBusy(ChannelExport)))})
		return
	}

	input := ops.ExportInput{
		Folder:   c.store.Get(ctx).OutputFolderPath,
		FileName: p.FileName,
		Text:     p.Text,
	}
	c.spawn(func() {
		res := c.export(ctx, log, input)
		c.exportFlight.Release(1)
		c.post(ChannelExportResult, msg.ID, encodeExport(res))
	})
}

func (c *Coordinator) export(ctx context.Context, log *slog.Logger, input ops.ExportInput) fn.Result[ops.ExportOutput] {
	out, err := ops.Export(ctx, input)
	if err != nil {
		log.Error("export failed", "folder", input.Folder, "file_name", input.FileName, "error", err)
		return fn.Err[ops.ExportOutput](err)
	}
	log.Info("exported", "path", out.Path, "lines", out.Lines)
	return fn.Ok(*out)
}

// encodeExport encodes a failure as a null path.
func encodeExport(res fn.Result[ops.ExportOutput]) ExportResult {
	out, err := res.Unpack()
	if err != nil {
		return ExportResult{Path: nil}
	}
	path := out.Path
	return ExportResult{Path: &path}
}

// handleOpenExportedFile has no reply. A failure to open both the file and
// its folder is only logged.
func (c *Coordinator) handleOpenExportedFile(ctx context.Context, log *slog.Logger, msg Inbound) {
	var p pathPayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		log.Warn("invalid payload", "error", err)
		return
	}

	c.spawn(func() {
		if err := ops.OpenExported(ctx, c.opener, p.Path); err != nil {
			log.Warn("open failed", "path", p.Path, "error", err)
		}
	})
}

func (c *Coordinator) handleWindowResized(ctx context.Context, log *slog.Logger, msg Inbound) {
	var p windowSizePayload
	if err := decodePayload(msg.Payload, &p); err != nil {
		log.Warn("invalid payload", "error", err)
		return
	}
	if err := c.store.SetWindowSize(ctx, p.Width, p.Height); err != nil {
		log.Warn("window size not saved", "width", p.Width, "height", p.Height, "error", err)
	}
}
