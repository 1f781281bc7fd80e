package pdf_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"gitlab.faza.io/order-project/restaurant-service/infrastructure/future"
	applog "gitlab.faza.io/order-project/restaurant-service/infrastructure/logger"
	"io/ioutil"
	"net/http"
	"time"
)

type iPdfServiceImpl struct {
	httpClient    *http.Client
	serverAddress string
	serverPort    int
}

func NewPdfService(serverAddress string, serverPort int) IPdfService {
	return &iPdfServiceImpl{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		serverAddress: serverAddress,
		serverPort:    serverPort,
	}
}

func (service iPdfServiceImpl) RenderBillDocument(ctx context.Context, document BillDocument) future.IFuture {
	payload, err := json.Marshal(document)
	if err != nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "Marshal Document Failed")).
			BuildAndSend()
	}

	url := fmt.Sprintf("http://%s:%d/v1/render/bill", service.serverAddress, service.serverPort)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "NewRequest Failed")).
			BuildAndSend()
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := service.httpClient.Do(request)
	if err != nil {
		applog.GLog.Logger.FromContext(ctx).Error("pdf renderer request failed",
			"fn", "RenderBillDocument", "billNumber", document.Bill.BillNumber, "error", err)
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "PdfService Unreachable")).
			BuildAndSend()
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error",
				errors.Errorf("pdf renderer returned status %d", response.StatusCode)).
			BuildAndSend()
	}

	rendered, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.Wrap(err, "Read Response Failed")).
			BuildAndSend()
	}

	return future.Factory().SetCapacity(1).SetData(rendered).BuildAndSend()
}
