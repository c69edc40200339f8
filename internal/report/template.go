package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Render produces the full HTML document for a prepared report.
func Render(data *TemplateData) (string, error) {
	tmpl := template.Must(template.New("report").Parse(htmlTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.String(), nil
}

// Write renders the report and saves it under outputDir as
// RCA_Report_<timestamp>.html, returning the file path.
func Write(data *TemplateData, outputDir string) (string, error) {
	html, err := Render(data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("RCA_Report_%s.html", time.Now().Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(html)).Msg("Report written")
	return path, nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
    <title>RCA Report - {{.PeriodName}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial, sans-serif;
            margin: 0;
            background: #f8f9fa;
        }

        .header {
            background: linear-gradient(135deg, #7c3aed 0%, #14b8a6 100%);
            color: white;
            padding: 25px 40px;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
        }

        .header-content {
            max-width: 1400px;
            margin: 0 auto;
            display: flex;
            align-items: center;
            justify-content: space-between;
        }

        .logo-text { font-size: 2rem; font-weight: bold; }
        .logo-dot { color: #14b8a6; font-size: 2.5rem; margin: 0 2px; }

        .report-title { font-size: 1.5rem; font-weight: 300; }

        .ai-badge {
            background: #10b981;
            color: white;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.8rem;
            font-weight: 500;
            display: inline-block;
            margin-left: 10px;
        }

        .header-right { display: flex; align-items: center; gap: 40px; }
        .date-info { font-size: 0.95rem; opacity: 0.9; }
        .stats { display: flex; gap: 30px; }
        .stat { text-align: center; }
        .stat-number { font-size: 1.8rem; font-weight: bold; color: #14b8a6; }
        .stat-label { font-size: 0.75rem; opacity: 0.85; text-transform: uppercase; letter-spacing: 0.5px; margin-top: 2px; }

        .container { max-width: 1400px; margin: 0 auto; padding: 20px; }

        .customer-section {
            background: white;
            margin: 20px 0;
            border-radius: 12px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.08);
            overflow: hidden;
        }

        .customer-header {
            background: linear-gradient(135deg, #f8f9fa 0%, #f3f4f6 100%);
            padding: 20px 25px;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        .count-pill {
            background: #14b8a6;
            color: white;
            padding: 6px 14px;
            border-radius: 20px;
            font-size: 0.85rem;
            font-weight: 500;
            margin-right: 10px;
        }
        .done-pill { background: #10b981; }

        table { width: 100%; border-collapse: collapse; }
        th {
            background: #fafafa;
            padding: 12px 15px;
            text-align: left;
            font-size: 0.85rem;
            color: #6b7280;
            font-weight: 600;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        td {
            padding: 14px 15px;
            border-bottom: 1px solid #f3f4f6;
            color: #374151;
        }

        tr.expandable { cursor: pointer; }
        tr.expandable:hover td { background: #f9fafb; }

        .expand-indicator {
            display: inline-block;
            margin-right: 8px;
            transition: transform 0.3s;
            color: #7c3aed;
        }

        .ticket-link {
            color: #7c3aed;
            text-decoration: none;
            padding: 5px 12px;
            border: 1px solid #7c3aed;
            border-radius: 6px;
            display: inline-block;
            font-size: 0.85rem;
        }

        .status {
            padding: 5px 10px;
            border-radius: 6px;
            font-size: 0.8rem;
            font-weight: 500;
        }

        .status-complete { background: #d1fae5; color: #065f46; }
        .status-customer-fix { background: #dbeafe; color: #1e40af; }
        .status-invalid { background: #e5e7eb; color: #4b5563; }
        .status-external { background: #fed7aa; color: #9a3412; }
        .status-blocked { background: #fee2e2; color: #991b1b; }
        .status-progress { background: #bfdbfe; color: #1e3a8a; }
        .status-waiting { background: #fef3c7; color: #92400e; }
        .status-qa { background: #e9d5ff; color: #6b21a8; }
        .status-signoff { background: #ccfbf1; color: #134e4a; }
        .status-open { background: #fef3c7; color: #92400e; }
        .status-default { background: #f3f4f6; color: #6b7280; }

        .detail-panel {
            background: #f9fafb;
            padding: 20px 60px;
            border-left: 4px solid #7c3aed;
        }

        .detail-meta {
            display: grid;
            grid-template-columns: repeat(3, 1fr);
            gap: 20px;
            margin-bottom: 25px;
            padding: 15px;
            background: white;
            border-radius: 6px;
        }

        .rca-section { margin-bottom: 20px; }
        .rca-section h4 { color: #1f2937; }
        .rca-box { padding: 12px; background: white; border-radius: 6px; }

        .rca-content {
            background: #f0fdf4;
            border-left: 4px solid #10b981;
            padding: 12px;
            margin-top: 8px;
            border-radius: 4px;
            font-size: 0.95rem;
            line-height: 1.6;
            white-space: pre-wrap;
            font-family: 'SF Mono', 'Monaco', 'Inconsolata', monospace;
        }

        .rca-empty {
            color: #9ca3af;
            font-style: italic;
            padding: 12px;
            background: #f9fafb;
            border-radius: 4px;
        }

        .media-grid {
            display: grid;
            grid-template-columns: repeat(auto-fill, minmax(200px, 1fr));
            gap: 15px;
            margin-top: 10px;
        }

        .media-item {
            background: white;
            border: 1px solid #e5e7eb;
            border-radius: 6px;
            overflow: hidden;
            cursor: pointer;
        }
        .media-item:hover { box-shadow: 0 4px 12px rgba(0,0,0,0.1); }
        .media-item img { width: 100%; height: 150px; object-fit: cover; }
        .media-item-info {
            padding: 8px;
            font-size: 0.75rem;
            color: #6b7280;
            text-align: center;
        }

        .reference-link {
            display: block;
            color: #7c3aed;
            text-decoration: none;
            word-break: break-all;
            margin: 5px 0;
            padding: 2px 0;
        }
        .reference-link:hover { text-decoration: underline; }

        .code-snippet {
            background: #1e293b;
            color: #e2e8f0;
            padding: 15px;
            border-radius: 6px;
            margin: 10px 0;
            overflow-x: auto;
            font-family: 'SF Mono', 'Monaco', monospace;
            font-size: 0.9rem;
            line-height: 1.5;
        }
        .snippet-user { color: #94a3b8; font-size: 0.8rem; }

        .indicator-badge {
            display: inline-block;
            padding: 3px 8px;
            border-radius: 4px;
            font-size: 0.75rem;
            margin-left: 8px;
        }
        .slack-indicator { background: #4a1d96; color: white; }
        .images-indicator { background: #059669; color: white; }
        .console-indicator { background: #dc2626; color: white; }
        .no-data-indicator { background: #ef4444; color: white; }
        .resolution-time { background: #e0e7ff; color: #4338ca; }

        .image-modal {
            display: none;
            position: fixed;
            z-index: 1000;
            left: 0;
            top: 0;
            width: 100%;
            height: 100%;
            background-color: rgba(0,0,0,0.9);
        }
        .modal-content {
            margin: auto;
            display: block;
            max-width: 90%;
            max-height: 90%;
            margin-top: 50px;
        }
        .close-modal {
            position: absolute;
            top: 15px;
            right: 35px;
            color: #f1f1f1;
            font-size: 40px;
            font-weight: bold;
            cursor: pointer;
        }
    </style>
</head>
<body>
    <div class="header">
        <div class="header-content">
            <div class="logo-text">RCA<span class="logo-dot">.</span>report</div>
            <div class="report-title">
                RCA Report
                {{if .UsingAI}}<span class="ai-badge">AI Analysis</span>{{end}}
            </div>
            <div class="header-right">
                <div>
                    <div class="date-info">{{.DateRange}}</div>
                    <div class="date-info" style="margin-top: 5px;">{{.PeriodName}}</div>
                </div>
                <div class="stats">
                    <div class="stat">
                        <div class="stat-number">{{.TotalTickets}}</div>
                        <div class="stat-label">Total Tickets</div>
                    </div>
                    <div class="stat">
                        <div class="stat-number">{{.TotalCompleted}}</div>
                        <div class="stat-label">Closed/Done</div>
                    </div>
                    <div class="stat">
                        <div class="stat-number">{{.CustomerCount}}</div>
                        <div class="stat-label">Customers</div>
                    </div>
                </div>
            </div>
        </div>
    </div>

    <div class="container">
        {{range .Customers}}
        <div class="customer-section">
            <div class="customer-header">
                <h2>{{.Name}}</h2>
                <div>
                    <span class="count-pill">{{.TicketCount}} tickets</span>
                    {{if gt .CompletedCount 0}}<span class="count-pill done-pill">{{.CompletedCount}} closed/done</span>{{end}}
                </div>
            </div>
            <table>
                <tr>
                    <th width="50">#</th>
                    <th>Title</th>
                    <th width="120">Ticket</th>
                    <th width="100">Date</th>
                    <th width="120">Status</th>
                    <th width="150">Owner</th>
                </tr>
                {{range .Tickets}}
                <tr class="expandable" onclick="toggleDetails('{{.DetailID}}')">
                    <td><span class="expand-indicator">&#9654;</span> {{.Index}}</td>
                    <td>{{.Title}}{{range .Indicators}}<span class="indicator-badge {{.Class}}">{{.Label}}</span>{{end}}</td>
                    <td><a href="{{.URL}}" class="ticket-link" target="_blank" onclick="event.stopPropagation()">View</a></td>
                    <td>{{.Date}}</td>
                    <td><span class="status {{.StatusClass}}">{{.Status}}</span></td>
                    <td>{{.Owner}}</td>
                </tr>
                <tr id="details_{{.DetailID}}" style="display: none;">
                    <td colspan="6" style="padding: 0;">
                        <div class="detail-panel">
                            <div class="detail-meta">
                                <div><strong>Customer:</strong><br>{{.Customer}}</div>
                                <div><strong>Date:</strong><br>{{.Date}}</div>
                                <div><strong>Status:</strong><br>{{.Status}}</div>
                                <div><strong>Owner:</strong><br>{{.Owner}}</div>
                                <div><strong>Ticket ID:</strong><br>{{if .TrackerID}}{{.TrackerID}}{{else}}N/A{{end}}</div>
                                <div><strong>Resolution Time:</strong><br>{{if .ResolutionTime}}{{.ResolutionTime}}{{else}}N/A{{end}}</div>
                            </div>

                            <div class="rca-section">
                                <h4>Summary of the Issue</h4>
                                <div class="rca-box">
                                    {{if .Summary}}<div class="rca-content">{{.Summary}}</div>{{else}}<div class="rca-empty">No summary data available</div>{{end}}
                                </div>
                            </div>

                            <div class="rca-section">
                                <h4>Steps to Debug</h4>
                                <div class="rca-box">
                                    {{if .DebugSteps}}<div class="rca-content">{{.DebugSteps}}</div>{{else}}<div class="rca-empty">No debug steps found</div>{{end}}
                                </div>
                            </div>

                            <div class="rca-section">
                                <h4>Steps to Resolution</h4>
                                <div class="rca-box">
                                    {{if .ResolutionSteps}}<div class="rca-content">{{.ResolutionSteps}}</div>{{else}}<div class="rca-empty">No resolution data available</div>{{end}}
                                </div>
                            </div>

                            <div class="rca-section">
                                <h4>Root Cause Analysis</h4>
                                <div class="rca-box">
                                    {{if .RootCause}}<div class="rca-content">{{.RootCause}}</div>{{else}}<div class="rca-empty">Root cause not identified</div>{{end}}
                                </div>
                            </div>

                            {{if .ReferenceLinks}}
                            <div class="rca-section">
                                <h4>Reference Links</h4>
                                <div class="rca-box">
                                    {{range .ReferenceLinks}}
                                    <a href="{{.}}" target="_blank" class="reference-link">{{.}}</a>
                                    {{end}}
                                </div>
                            </div>
                            {{end}}

                            {{if .Images}}
                            <div class="rca-section">
                                <h4>Attached Images</h4>
                                <div class="rca-box">
                                    <div class="media-grid">
                                        {{range .Images}}
                                        <div class="media-item" onclick="openImageModal('{{.URL}}')">
                                            <img src="{{.ThumbURL}}" alt="{{.Title}}" loading="lazy">
                                            <div class="media-item-info">{{.Title}}</div>
                                        </div>
                                        {{end}}
                                    </div>
                                </div>
                            </div>
                            {{end}}

                            {{if .Snippets}}
                            <div class="rca-section">
                                <h4>Commands/Code Used</h4>
                                {{range .Snippets}}
                                <div class="code-snippet">
                                    <small class="snippet-user">Shared by {{.User}}</small>
                                    <pre style="margin: 10px 0 0 0;">{{.Code}}</pre>
                                </div>
                                {{end}}
                            </div>
                            {{end}}
                        </div>
                    </td>
                </tr>
                {{end}}
            </table>
        </div>
        {{end}}
    </div>

    <div id="imageModal" class="image-modal" onclick="closeImageModal()">
        <span class="close-modal">&times;</span>
        <img class="modal-content" id="modalImage">
    </div>

    <script>
        function toggleDetails(ticketId) {
            const detailsRow = document.getElementById('details_' + ticketId);
            const clickedRow = detailsRow.previousElementSibling;
            const indicator = clickedRow.querySelector('.expand-indicator');

            if (detailsRow.style.display === 'table-row') {
                detailsRow.style.display = 'none';
                indicator.innerHTML = '▶';
            } else {
                document.querySelectorAll('[id^="details_"]').forEach(row => {
                    row.style.display = 'none';
                    if (row.previousElementSibling) {
                        row.previousElementSibling.querySelector('.expand-indicator').innerHTML = '▶';
                    }
                });

                detailsRow.style.display = 'table-row';
                indicator.innerHTML = '▼';
            }
        }

        function openImageModal(imgSrc) {
            event.stopPropagation();
            const modal = document.getElementById('imageModal');
            const modalImg = document.getElementById('modalImage');
            modal.style.display = 'block';
            modalImg.src = imgSrc;
        }

        function closeImageModal() {
            document.getElementById('imageModal').style.display = 'none';
        }

        document.addEventListener('keydown', function(event) {
            if (event.key === 'Escape') {
                closeImageModal();
            }
        });
    </script>
</body>
</html>`
