package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Credit Card Fraud Detection</title>
    <meta name="description" content="Heuristic fraud risk scoring for credit card transactions">
    <link rel="icon" href="data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'><text y='.9em' font-size='90'>&#128179;</text></svg>">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --bg: #f5f7fa;
            --panel: #ffffff;
            --border: #d9e1ec;
            --text: #16324f;
            --text-secondary: #5a7184;
            --header: #1E88E5;
            --subheader: #0D47A1;
            --fraud-bg: #ffcdd2;
            --fraud-border: #c62828;
            --legit-bg: #c8e6c9;
            --legit-border: #2e7d32;
            --warn-bg: #fff3cd;
            --warn-border: #b58900;
        }

        body {
            font-family: -apple-system, 'Segoe UI', sans-serif;
            background: var(--bg);
            color: var(--text);
            font-size: 15px;
            line-height: 1.5;
            min-height: 100vh;
        }

        .layout { display: flex; min-height: 100vh; }

        aside {
            width: 280px;
            background: var(--panel);
            border-right: 1px solid var(--border);
            padding: 24px;
            flex-shrink: 0;
        }

        aside h2 { font-size: 17px; margin: 18px 0 8px; color: var(--subheader); }
        aside p, aside ol { font-size: 13px; color: var(--text-secondary); }
        aside ol { padding-left: 18px; }
        aside .badge {
            background: #e3f2fd;
            border: 1px solid #90caf9;
            border-radius: 6px;
            padding: 10px;
            font-size: 13px;
        }

        main { flex: 1; padding: 32px 48px; max-width: 980px; }

        h1.main-header {
            font-size: 2.2rem;
            color: var(--header);
            text-align: center;
            margin-bottom: 24px;
        }

        h2.sub-header { font-size: 1.4rem; color: var(--subheader); margin: 20px 0 12px; }

        .card {
            background: var(--panel);
            border: 1px solid var(--border);
            border-radius: 8px;
            padding: 20px;
            margin-bottom: 16px;
        }

        .form-row { display: flex; gap: 24px; }
        .form-field { flex: 1; }
        .form-field label { display: block; font-size: 13px; color: var(--text-secondary); margin-bottom: 6px; }
        .form-field input {
            width: 100%;
            padding: 10px 12px;
            border: 1px solid var(--border);
            border-radius: 6px;
            font-size: 15px;
        }

        button.primary {
            width: 100%;
            margin-top: 18px;
            padding: 12px;
            border: none;
            border-radius: 6px;
            background: var(--header);
            color: #fff;
            font-size: 15px;
            font-weight: 600;
            cursor: pointer;
        }
        button.primary:disabled { opacity: 0.6; cursor: wait; }

        .progress-wrap { display: none; margin: 16px 0; }
        .progress-track {
            height: 8px;
            background: var(--border);
            border-radius: 4px;
            overflow: hidden;
        }
        .progress-fill {
            height: 100%;
            width: 0;
            background: var(--header);
            transition: width 0.45s ease;
        }
        .progress-stage { font-size: 13px; color: var(--text-secondary); margin-top: 6px; }

        .result-box {
            padding: 20px;
            border-radius: 5px;
            margin: 10px 0;
            display: none;
        }
        .result-box.fraud { background: var(--fraud-bg); border: 2px solid var(--fraud-border); display: block; }
        .result-box.legitimate { background: var(--legit-bg); border: 2px solid var(--legit-border); display: block; }
        .result-box strong { display: block; margin-bottom: 6px; }

        .metrics { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
        .metric {
            background: var(--bg);
            border: 1px solid var(--border);
            border-radius: 6px;
            padding: 12px;
        }
        .metric .label { font-size: 12px; text-transform: uppercase; letter-spacing: 0.04em; color: var(--text-secondary); }
        .metric .value { font-size: 22px; font-weight: 600; }

        .indicator {
            background: var(--warn-bg);
            border: 1px solid var(--warn-border);
            border-radius: 6px;
            padding: 10px 12px;
            margin: 6px 0;
            font-size: 14px;
        }
        .all-clear {
            background: var(--legit-bg);
            border: 1px solid var(--legit-border);
            border-radius: 6px;
            padding: 10px 12px;
            font-size: 14px;
        }

        .actions ul { padding-left: 20px; font-size: 14px; }

        #detail { display: none; }

        footer {
            text-align: center;
            padding: 16px;
            color: var(--text-secondary);
            font-size: 13px;
        }
    </style>
</head>
<body>
<div class="layout">
    <aside>
        <h2>About</h2>
        <div class="badge">
            This application scores credit card transactions for fraud risk
            based on customer ID, transaction amount and the customer's
            spending history.
        </div>
        <h2>How It Works</h2>
        <ol>
            <li>Enter a customer ID</li>
            <li>Enter a transaction amount</li>
            <li>Click 'Check Transaction'</li>
            <li>The system analyzes the data and provides a fraud assessment</li>
        </ol>
    </aside>
    <main>
        <h1 class="main-header">Credit Card Fraud Detection System</h1>

        <div class="card">
            <h2 class="sub-header">Transaction Details</h2>
            <div class="form-row">
                <div class="form-field">
                    <label for="customer-id">Customer ID</label>
                    <input id="customer-id" type="number" min="0" step="1" value="0">
                </div>
                <div class="form-field">
                    <label for="amount">Transaction Amount ($)</label>
                    <input id="amount" type="number" min="0" step="10" value="0.00">
                </div>
            </div>
            <button class="primary" id="check-btn" onclick="checkTransaction()">Check Transaction</button>
            <div class="progress-wrap" id="progress">
                <div class="progress-track"><div class="progress-fill" id="progress-fill"></div></div>
                <div class="progress-stage" id="progress-stage"></div>
            </div>
        </div>

        <div id="detail">
            <h2 class="sub-header">Analysis Result</h2>
            <div class="card">
                <strong>Transaction Summary:</strong>
                <ul style="padding-left:20px;font-size:14px">
                    <li>Customer ID: <span id="summary-customer"></span></li>
                    <li>Amount: $<span id="summary-amount"></span></li>
                </ul>
            </div>

            <div class="result-box" id="result-box">
                <strong id="result-title"></strong>
                <span id="result-text"></span>
            </div>

            <div class="card">
                <h2 class="sub-header" style="margin-top:0">Detailed Analysis</h2>
                <div id="history"></div>
                <div id="indicators" style="margin-top:14px"></div>
                <div class="actions" id="actions" style="margin-top:14px"></div>
            </div>
        </div>
    </main>
</div>
<footer>&copy; 2025 OrbiDefence</footer>

<script>
const stages = [
    "Initializing fraud detection system...",
    "Analyzing transaction patterns...",
    "Comparing with historical data...",
    "Calculating fraud indicators...",
    "Finalizing fraud assessment..."
];

function runProgress() {
    const wrap = document.getElementById('progress');
    const fill = document.getElementById('progress-fill');
    const stage = document.getElementById('progress-stage');
    wrap.style.display = 'block';
    fill.style.width = '0%';
    return new Promise(resolve => {
        let i = 0;
        const tick = () => {
            if (i >= stages.length) {
                wrap.style.display = 'none';
                resolve();
                return;
            }
            stage.textContent = stages[i];
            fill.style.width = ((i + 1) / stages.length * 100) + '%';
            i++;
            setTimeout(tick, 500);
        };
        tick();
    });
}

function fmtMoney(v) { return Number(v).toFixed(2); }

function renderHistory(result) {
    const el = document.getElementById('history');
    const s = result.customer_stats;
    if (s.transaction_count > 0) {
        let cells =
            metric('Previous Transactions', s.transaction_count) +
            metric('Average Amount', '$' + fmtMoney(s.avg_amount)) +
            metric('Maximum Amount', '$' + fmtMoney(s.max_amount)) +
            metric('Total Spent', '$' + fmtMoney(s.total_amount));
        if (result.amount_to_avg_ratio !== undefined && result.amount_to_avg_ratio !== null) {
            cells += metric('Amount/Avg Ratio', Number(result.amount_to_avg_ratio).toFixed(2) + 'x');
        }
        if (result.amount_to_max_ratio !== undefined && result.amount_to_max_ratio !== null) {
            cells += metric('Amount/Max Ratio', Number(result.amount_to_max_ratio).toFixed(2) + 'x');
        }
        el.innerHTML = '<strong>Customer History:</strong><div class="metrics" style="margin-top:8px">' + cells + '</div>';
    } else {
        el.innerHTML = '<div class="badge" style="background:#e3f2fd;border:1px solid #90caf9;border-radius:6px;padding:10px">No transaction history for this customer.</div>';
    }
}

function metric(label, value) {
    return '<div class="metric"><div class="label">' + label + '</div><div class="value">' + value + '</div></div>';
}

function renderIndicators(result) {
    const el = document.getElementById('indicators');
    if (result.fraud_indicators && result.fraud_indicators.length > 0) {
        el.innerHTML = '<strong>Risk Indicators:</strong>' +
            result.fraud_indicators.map(i => '<div class="indicator">&bull; ' + i + '</div>').join('');
    } else {
        el.innerHTML = '<div class="all-clear">No risk indicators detected.</div>';
    }
}

function renderActions(result) {
    const el = document.getElementById('actions');
    if (result.predicted_fraud) {
        el.innerHTML = '<strong>Recommended Actions</strong><ul>' +
            '<li>Contact the account holder immediately</li>' +
            '<li>Temporarily freeze the account</li>' +
            '<li>Verify recent transactions with the customer</li>' +
            '<li>Request additional verification for future transactions</li></ul>';
    } else {
        el.innerHTML = '';
    }
}

async function checkTransaction() {
    const btn = document.getElementById('check-btn');
    const customerID = parseInt(document.getElementById('customer-id').value, 10);
    const amount = parseFloat(document.getElementById('amount').value);

    if (isNaN(customerID) || customerID < 0 || isNaN(amount) || amount < 0) {
        alert('Please enter a non-negative customer ID and amount.');
        return;
    }

    btn.disabled = true;
    document.getElementById('detail').style.display = 'none';

    try {
        const [resp] = await Promise.all([
            fetch('/api/v1/assessments', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ customer_id: customerID, amount: amount })
            }),
            runProgress()
        ]);

        if (!resp.ok) {
            const body = await resp.json().catch(() => ({}));
            alert(body.error || 'Assessment failed');
            return;
        }

        const result = await resp.json();

        document.getElementById('summary-customer').textContent = customerID;
        document.getElementById('summary-amount').textContent = fmtMoney(amount);

        const box = document.getElementById('result-box');
        if (result.predicted_fraud) {
            box.className = 'result-box fraud';
            document.getElementById('result-title').textContent = '⚠️ Potential Fraud Detected!';
            document.getElementById('result-text').textContent =
                'This transaction has been flagged as potentially fraudulent and should be reviewed.';
        } else {
            box.className = 'result-box legitimate';
            document.getElementById('result-title').textContent = '✅ Transaction Appears Legitimate';
            document.getElementById('result-text').textContent =
                'This transaction appears to be legitimate based on our analysis.';
        }

        renderHistory(result);
        renderIndicators(result);
        renderActions(result);

        document.getElementById('detail').style.display = 'block';
    } finally {
        btn.disabled = false;
    }
}
</script>
</body>
</html>`

// PageHandler serves the single-page fraud check UI.
func PageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
	}
}
