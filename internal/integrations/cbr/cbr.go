// Package cbr fetches the Central Bank key rate used as the reference rate
// for loan pricing. The upstream service speaks SOAP 1.2.
package cbr

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/greystone/loan-service/internal/config"
)

// Margin added on top of the central bank rate when quoting loans.
const bankMargin = 5.0

// Client handles integration with the central bank rate service
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger

	mu        sync.RWMutex
	rate      float64
	fetchedAt time.Time
}

// NewClient initializes a new key-rate client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.CBRURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// KeyRate returns the cached reference rate, fetching it on first use.
// The cron-driven Refresh keeps the cached value current afterwards.
func (c *Client) KeyRate() (float64, error) {
	c.mu.RLock()
	fetched := !c.fetchedAt.IsZero()
	rate := c.rate
	c.mu.RUnlock()

	if fetched {
		return rate, nil
	}
	if err := c.Refresh(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate, nil
}

// Refresh fetches the current key rate and updates the cached value
func (c *Client) Refresh() error {
	body, err := c.sendRequest(c.buildSOAPRequest())
	if err != nil {
		return err
	}

	rate, err := c.parseXMLResponse(body)
	if err != nil {
		return err
	}
	rate += bankMargin

	c.mu.Lock()
	c.rate = rate
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.log.Infof("Refreshed key rate: %.2f%% (including %.2f%% margin)", rate, bankMargin)
	return nil
}

// buildSOAPRequest creates a SOAP request for key rate
func (c *Client) buildSOAPRequest() string {
	fromDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	toDate := time.Now().Format("2006-01-02")
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">
			<soap12:Body>
				<KeyRate xmlns="http://web.cbr.ru/">
					<fromDate>%s</fromDate>
					<ToDate>%s</ToDate>
				</KeyRate>
			</soap12:Body>
		</soap12:Envelope>`, fromDate, toDate)
}

// sendRequest sends the SOAP request upstream
func (c *Client) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBufferString(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("SOAPAction", "http://web.cbr.ru/KeyRate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debugf("Key rate XML response: %s", string(body))
	return body, nil
}

// parseXMLResponse extracts the most recent key rate from the response
func (c *Client) parseXMLResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %w", err)
	}

	krElements := doc.FindElements("//diffgram/KeyRate/KR")
	if len(krElements) == 0 {
		return 0, fmt.Errorf("no key rate data found in XML")
	}

	// The latest rate comes first.
	rateElement := krElements[0].FindElement("./Rate")
	if rateElement == nil {
		return 0, fmt.Errorf("rate element not found in XML")
	}

	var rate float64
	if _, err := fmt.Sscanf(rateElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %w", err)
	}

	return rate, nil
}
