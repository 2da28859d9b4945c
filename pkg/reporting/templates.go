/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template for the scan report page.
*/

package reporting

// reportTemplate is the report page; it has no external assets
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }

        .container { max-width: 1400px; margin: 0 auto; padding: 20px; }

        .header {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
            text-align: center;
        }

        .header h1 { color: #4a5568; font-size: 2.5rem; margin-bottom: 10px; font-weight: 700; }
        .header p { color: #718096; font-size: 1.1rem; }

        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .stat-card, .panel {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 15px;
            padding: 25px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }

        .stat-card .value { font-size: 2.5rem; font-weight: 700; color: #2d3748; margin-bottom: 5px; }
        .stat-card .label { color: #718096; font-size: 0.9rem; text-transform: uppercase; letter-spacing: 0.5px; }

        .panel { margin-bottom: 30px; }
        .panel h2 { color: #4a5568; font-size: 1.3rem; margin-bottom: 20px; }

        .finding {
            background: #f7fafc;
            border-radius: 10px;
            padding: 20px;
            margin-bottom: 15px;
            border-left: 4px solid #38a169;
        }

        .finding.unknown { border-left-color: #dd6b20; }
        .finding.inferred { border-left-color: #667eea; }
        .finding.heuristic { border-left-color: #d69e2e; }

        .finding-header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10px; }
        .finding-title { font-weight: 600; color: #2d3748; }

        .badge {
            padding: 4px 12px;
            border-radius: 20px;
            font-size: 0.8rem;
            font-weight: 600;
            text-transform: uppercase;
            background: #e2e8f0;
            color: #4a5568;
            margin-left: 6px;
        }

        code.command, pre.declaration {
            display: block;
            background: #2d3748;
            color: #f6e05e;
            padding: 12px;
            border-radius: 8px;
            margin: 10px 0;
            white-space: pre-wrap;
            word-break: break-all;
        }

        pre.declaration { color: #e2e8f0; }

        .details { color: #718096; font-size: 0.9rem; }
        .details div { margin-bottom: 4px; }
        .warning { color: #c05621; font-size: 0.9rem; margin-top: 6px; }

        .footer { text-align: center; padding: 30px; color: rgba(255, 255, 255, 0.8); font-size: 0.9rem; }

        @media (max-width: 768px) {
            .container { padding: 10px; }
            .header h1 { font-size: 2rem; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <p>Generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM"}} | Run: <span id="run-id">{{.Result.RunID}}</span> | Version: {{.Version}}</p>
            <p>Root: {{.Result.Root}} | Max permission level: {{.Result.MaxLevel}} | Duration: {{.Duration}}{{if .Result.Partial}} | <strong>partial</strong>{{end}}</p>
        </div>

        <div class="stats-grid">
            <div class="stat-card"><div class="value" id="stat-manifests">{{.Result.Stats.Manifests}}</div><div class="label">Manifests</div></div>
            <div class="stat-card"><div class="value" id="stat-components">{{.Result.Stats.Components}}</div><div class="label">Components</div></div>
            <div class="stat-card"><div class="value" id="stat-findings">{{.Result.Stats.Findings}}</div><div class="label">Commands</div></div>
            <div class="stat-card"><div class="value" id="stat-enriched">{{.Result.Stats.Enriched}}</div><div class="label">Enriched</div></div>
            <div class="stat-card"><div class="value" id="stat-warnings">{{.Result.Stats.Warnings}}</div><div class="label">Warnings</div></div>
        </div>

        <div class="panel" id="findings">
            <h2>Commands</h2>
            {{range .Result.Findings}}
            <div class="finding {{.ExtrasStatus}}" data-component="{{.Component.Name}}">
                <div class="finding-header">
                    <span class="finding-title">{{.Component.Name}}</span>
                    <span><span class="badge kind">{{.Component.Kind}}</span><span class="badge extras">{{.ExtrasStatus}}</span></span>
                </div>
                <code class="command">{{.Command.Text}}</code>
                <div class="details">
                    <div>Manifest: {{.Component.ManifestPath}}:{{.Component.Line}}</div>
                    {{if .SourcePath}}<div>Source file: {{.SourcePath}}</div>{{end}}
                    {{if .GuardPermission}}<div>Permission: {{.GuardPermission}} ({{.PermissionLevel}})</div>{{end}}
                    {{if .Component.SharedUserID}}<div>sharedUserId: {{.Component.SharedUserID}}</div>{{end}}
                    {{if .Command.Categories}}<div>Categories: {{join .Command.Categories ", "}}</div>{{end}}
                </div>
                {{if .Component.Declaration}}<pre class="declaration">{{.Component.Declaration}}</pre>{{end}}
                {{range .Warnings}}<div class="warning">{{.Message}}</div>{{end}}
            </div>
            {{else}}
            <p class="details">No reachable components found.</p>
            {{end}}
        </div>

        {{if .Result.Warnings}}
        <div class="panel" id="warnings">
            <h2>Warnings</h2>
            {{range .Result.Warnings}}<div class="warning" data-stage="{{.Stage}}">{{.}}</div>{{end}}
        </div>
        {{end}}

        <div class="footer">intentscout {{.Version}}</div>
    </div>
</body>
</html>
`
