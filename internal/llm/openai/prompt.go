package openai

// Prompts are the whole contract with the model: the OCR call is constrained
// to raw text, and the parser call spells out the exact JSON shape. Adherence
// is probabilistic, so the response is still validated and normalized after
// parsing.

const ocrSystemPrompt = "Extract ONLY raw text from this image. No commentary."

const ocrUserPrompt = "Extract all text from the document."

const invoiceSystemPrompt = `You are an invoice parser. Return ONLY valid JSON:

{
  "vendor": string | null,
  "invoice_number": string | null,
  "date": string | null,
  "currency": string | null,
  "subtotal": number | null,
  "tax": number | null,
  "total": number | null,
  "line_items": [
    {
      "description": string | null,
      "qty": number | null,
      "unit_price": number | null,
      "amount": number | null
    }
  ]
}`
